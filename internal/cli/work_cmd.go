package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/focusbuddy/internal/cli/formatter"
	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/research"
)

func newWorkCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Begin or end a work session",
	}
	cmd.AddCommand(newWorkBeginCmd(app), newWorkEndCmd(app))
	return cmd
}

func newWorkBeginCmd(app *App) *cobra.Command {
	var taskRef, category, name string

	cmd := &cobra.Command{
		Use:   "begin",
		Short: "Start a session on a task",
		Long: "Start a session on an existing task (--task) or on a task named by\n" +
			"--category and --name, which are created when missing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var task *domain.Task
			var catName string

			switch {
			case taskRef != "" && name != "":
				return errors.New("use either --task or --category with --name, not both")
			case taskRef != "":
				catID := ""
				if category != "" {
					c, err := resolveCategory(ctx, app, category)
					if err != nil {
						return err
					}
					catID = c.ID
				}
				t, err := resolveTask(ctx, app, taskRef, catID)
				if err != nil {
					return err
				}
				task = t
				catName, _ = sessionLabel(ctx, app, t.ID)
			case name != "" && category != "":
				c, t, err := app.Catalog.Resolve(ctx, category, name)
				if err != nil {
					return err
				}
				task, catName = t, c.Name
			default:
				return errors.New("pass --task, or --category and --name")
			}

			if _, err := app.Tracker.Begin(ctx, task.ID); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", formatter.StateIndicator(domain.StateWorking),
				formatter.Bold(formatter.SessionLabel{Category: catName, Task: task.Name}.String()))
			if optimal, ok, err := app.Forecast.OptimalSessionLength(ctx, task.CategoryID); err == nil && ok {
				fmt.Fprintf(out, "%s\n", formatter.Dim("suggested session length "+formatter.FormatMinutes(optimal)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&taskRef, "task", "", "Task ID or name")
	cmd.Flags().StringVar(&category, "category", "", "Category name")
	cmd.Flags().StringVar(&name, "name", "", "Task name (created if missing)")
	return cmd
}

func newWorkEndCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the active session and compute its aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Tracker.End(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEndResult(res))
			return nil
		},
	}
}

func newBreakCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "break",
		Short: "Start or end a break",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Start a break",
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := app.Tracker.StartBreak(context.Background()); err != nil {
					return err
				}
				printState(cmd, app)
				return nil
			},
		},
		&cobra.Command{
			Use:   "end",
			Short: "End the break and get back to work",
			RunE: func(cmd *cobra.Command, args []string) error {
				breakMin := app.Tracker.CurrentIntervalMinutes()
				if _, err := app.Tracker.EndBreak(context.Background()); err != nil {
					return err
				}
				printState(cmd, app)
				printBreakAdvice(cmd, breakMin)
				return nil
			},
		},
	)
	return cmd
}

func newProcrastinateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "procrastinate",
		Aliases: []string{"procrastination"},
		Short:   "Start or end a procrastination interval",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Admit you are procrastinating",
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := app.Tracker.StartProcrastination(context.Background()); err != nil {
					return err
				}
				printState(cmd, app)
				return nil
			},
		},
		&cobra.Command{
			Use:   "end",
			Short: "Stop procrastinating and get back to work",
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := app.Tracker.EndProcrastination(context.Background()); err != nil {
					return err
				}
				printState(cmd, app)
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim(backToFocus))
				return nil
			},
		},
	)
	return cmd
}

const backToFocus = "Nice! Back to focus mode."

func newResumeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume working from a break or procrastination",
		RunE: func(cmd *cobra.Command, args []string) error {
			from := app.Tracker.State()
			intervalMin := app.Tracker.CurrentIntervalMinutes()
			if _, err := app.Tracker.ResumeWorking(context.Background()); err != nil {
				return err
			}
			printState(cmd, app)
			if from == domain.StateOnBreak {
				printBreakAdvice(cmd, intervalMin)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim(backToFocus))
			}
			return nil
		},
	}
}

func newBurnoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "burnout",
		Short: "Record that you feel burnt out",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.Tracker.LogBurnout(context.Background()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s after %s. Take a break (buddy break start) or end the session (buddy work end).\n",
				formatter.StyleYellowBold.Render("Burnout logged"), formatter.FormatMinutes(app.Tracker.ElapsedMinutes()))
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			active, ok := app.Tracker.Active()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.StateIndicator(domain.StateIdle)+"  No active session.")
				return nil
			}
			cat, task := sessionLabel(context.Background(), app, active.Session.TaskID)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStatus(active,
				formatter.SessionLabel{Category: cat, Task: task},
				app.Tracker.ElapsedMinutes(), app.Tracker.CurrentIntervalMinutes()))
			return nil
		},
	}
}

func printState(cmd *cobra.Command, app *App) {
	fmt.Fprintln(cmd.OutOrStdout(), formatter.StateIndicator(app.Tracker.State()))
}

func printBreakAdvice(cmd *cobra.Command, breakMin float64) {
	fmt.Fprintf(cmd.OutOrStdout(), "Break lasted %s. %s\n", formatter.FormatMinutes(breakMin), research.Advice(breakMin))
}
