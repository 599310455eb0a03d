package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/focusbuddy/internal/cli/formatter"
)

func newSessionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "Inspect and manage recorded sessions",
	}
	cmd.AddCommand(
		newSessionsListCmd(app),
		newSessionsShowCmd(app),
		newSessionsRemoveCmd(app),
		newSessionsPruneCmd(app),
	)
	return cmd
}

func newSessionsListCmd(app *App) *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List completed sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			filter, err := flags.resolve(ctx, app)
			if err != nil {
				return err
			}
			details, err := app.Stats.Sessions(ctx, filter)
			if err != nil {
				return err
			}
			if len(details) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSessionList(details, app.now()))
			return nil
		},
	}

	flags.register(cmd, app, 20)
	return cmd
}

func newSessionsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a session's events, aggregates and replay audit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveSessionID(ctx, app, args[0])
			if err != nil {
				return err
			}
			audit, err := app.Stats.Audit(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAudit(audit))
			return nil
		},
	}
}

func newSessionsRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Delete a session with its events and reminders",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveSessionID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Data.DeleteSession(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session %s\n", formatter.TruncID(id))
			return nil
		},
	}
}

func newSessionsPruneCmd(app *App) *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete completed sessions started in a time range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.since == nil && flags.until == nil {
				return errors.New("pass --since and/or --until")
			}
			n, err := app.Data.Prune(context.Background(), flags.since, flags.until)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d session(s)\n", n)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.Var(newTimeValue(&flags.since, app.now), "since", "Delete sessions started at or after this time")
	fs.Var(newTimeValue(&flags.until, app.now), "until", "Delete sessions started before this time")
	return cmd
}
