package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/focusbuddy/internal/cli/formatter"
	"github.com/alexanderramin/focusbuddy/internal/forecast"
	"github.com/alexanderramin/focusbuddy/internal/research"
	"github.com/alexanderramin/focusbuddy/internal/service"
)

func newStatsCmd(app *App) *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show averaged statistics over completed sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			filter, err := flags.resolve(ctx, app)
			if err != nil {
				return err
			}
			d, err := app.Stats.Dashboard(ctx, filter)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDashboard(d))
			return nil
		},
	}

	flags.register(cmd, app, -1)
	return cmd
}

func targetNames() []string {
	names := make([]string, len(forecast.Targets))
	for i, t := range forecast.Targets {
		names[i] = string(t)
	}
	return names
}

func newPredictCmd(app *App) *cobra.Command {
	var category, task string

	cmd := &cobra.Command{
		Use:       "predict [TARGET]",
		Short:     "Forecast a session metric from your history",
		Long:      "Targets: " + strings.Join(targetNames(), ", ") + ".\nWithout a target every one is shown.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: targetNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			targets := forecast.Targets
			if len(args) == 1 {
				t, err := forecast.ParseTarget(args[0])
				if err != nil {
					return err
				}
				targets = []forecast.Target{t}
			}

			var scope service.Scope
			if category != "" {
				c, err := resolveCategory(ctx, app, category)
				if err != nil {
					return err
				}
				scope.CategoryID = c.ID
			}
			if task != "" {
				t, err := resolveTask(ctx, app, task, scope.CategoryID)
				if err != nil {
					return err
				}
				scope.TaskID = t.ID
			}

			var b strings.Builder
			for _, t := range targets {
				p, err := app.Forecast.Predict(ctx, t, scope)
				if err != nil {
					return err
				}
				b.WriteString(formatter.FormatPrediction(p))
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderBox("Predictions", strings.TrimRight(b.String(), "\n")))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category name or ID")
	cmd.Flags().StringVar(&task, "task", "", "Task name or ID")
	return cmd
}

func newInsightsCmd(app *App) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Suggest session length and break timing from your history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			categoryID := ""
			if category != "" {
				c, err := resolveCategory(ctx, app, category)
				if err != nil {
					return err
				}
				categoryID = c.ID
			}

			enough, err := app.Forecast.HasEnoughData(ctx, categoryID)
			if err != nil {
				return err
			}
			if !enough {
				fmt.Fprintln(cmd.OutOrStdout(), "Not enough data yet. Complete at least 3 sessions and I'll learn your patterns.")
				return nil
			}

			optimal, optOK, err := app.Forecast.OptimalSessionLength(ctx, categoryID)
			if err != nil {
				return err
			}
			breakAt, breakOK, err := app.Forecast.BreakInsertionPoint(ctx, categoryID)
			if err != nil {
				return err
			}
			breakLen, lenOK, err := app.Forecast.SuggestedBreakLength(ctx, categoryID)
			if err != nil {
				return err
			}

			missing := formatter.Dim("not enough data")
			pairs := [][2]string{
				{"optimal session", missing},
				{"take a break after", missing},
				{"break length", missing},
			}
			if optOK {
				pairs[0][1] = formatter.StyleGreen.Render(formatter.FormatMinutes(optimal))
			}
			if breakOK {
				pairs[1][1] = formatter.FormatMinutes(breakAt)
			}
			if lenOK {
				pairs[2][1] = formatter.FormatMinutes(breakLen)
			}

			var b strings.Builder
			b.WriteString(formatter.RenderPairs(pairs))
			if optOK {
				suggested := research.SuggestBreakLength(optimal)
				b.WriteString("\n" + formatter.Dim(fmt.Sprintf("Research suggests about %s of rest after %s of work.",
					formatter.FormatMinutes(suggested), formatter.FormatMinutes(optimal))))
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderBox("Insights", strings.TrimRight(b.String(), "\n")))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category name or ID")
	return cmd
}

func newTrainCmd(app *App) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Record a training snapshot of every forecast target",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if show {
				models, err := app.Forecast.LatestModels(ctx)
				if err != nil {
					return err
				}
				if len(models) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No training runs recorded.")
					return nil
				}
				rows := make([][]string, 0, len(models))
				for _, m := range models {
					rows = append(rows, []string{
						m.Target,
						fmt.Sprintf("v%d", m.Version),
						fmt.Sprintf("%d", m.Stats.SampleCount),
						fmt.Sprintf("%.1f", m.Stats.Mean),
						formatter.HumanTimestamp(m.TrainedAt, app.now()),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.RenderBox("Models",
					formatter.RenderTable([]string{"TARGET", "VERSION", "SAMPLES", "MEAN", "TRAINED"}, rows, 2, 3)))
				return nil
			}

			outcomes, err := app.Forecast.TrainAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTraining(outcomes))
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "List the latest recorded version per target instead of training")
	return cmd
}
