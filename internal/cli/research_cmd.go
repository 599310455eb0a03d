package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/focusbuddy/internal/cli/formatter"
	"github.com/alexanderramin/focusbuddy/internal/research"
)

func newResearchCmd(app *App) *cobra.Command {
	var breakMin, workedMin float64

	cmd := &cobra.Command{
		Use:   "research",
		Short: "Show what research says about work and break rhythm",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("break") {
				fmt.Fprintf(out, "%s  %s\n", formatter.Bold(string(research.Classify(breakMin))), research.Advice(breakMin))
				return nil
			}
			if cmd.Flags().Changed("worked") {
				fmt.Fprintf(out, "After %s of work, take about %s off.\n",
					formatter.FormatMinutes(workedMin), formatter.FormatMinutes(research.SuggestBreakLength(workedMin)))
				return nil
			}

			var b strings.Builder
			for i, e := range research.Entries() {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString(formatter.Bold(e.Title))
				if e.WorkMin > 0 || e.BreakMin > 0 {
					b.WriteString(formatter.Dim(fmt.Sprintf("  %s work / %s break",
						minutesOrDash(e.WorkMin), minutesOrDash(e.BreakMin))))
				}
				b.WriteString("\n" + e.Summary + "\n")
				b.WriteString(formatter.Dim(e.Citation) + "\n")
			}
			fmt.Fprint(out, formatter.RenderBox("Break research", strings.TrimRight(b.String(), "\n")))
			return nil
		},
	}

	cmd.Flags().Float64Var(&breakMin, "break", 0, "Get advice for a break of this many minutes")
	cmd.Flags().Float64Var(&workedMin, "worked", 0, "Suggest a break length after this many minutes of work")
	return cmd
}

func minutesOrDash(min float64) string {
	if min <= 0 {
		return "--"
	}
	return formatter.FormatMinutes(min)
}
