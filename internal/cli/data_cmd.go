package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/focusbuddy/internal/cli/formatter"
)

func newExportCmd(app *App) *cobra.Command {
	var flags filterFlags
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export completed sessions as CSV",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := context.Background()
			filter, err := flags.resolve(ctx, app)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
					return fmt.Errorf("creating export directory: %w", err)
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating export file: %w", err)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = fmt.Errorf("closing export file: %w", cerr)
					}
				}()
				w = f
			}

			n, err := app.Data.ExportCSV(ctx, w, filter)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d session(s) to %s\n", n, out)
			}
			return nil
		},
	}

	flags.register(cmd, app, -1)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newResetCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all categories, tasks, sessions and training records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes all data permanently; pass --yes to confirm")
			}
			if err := app.Data.ResetAll(context.Background()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.StyleRed.Render("All data deleted."))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
