package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/focusbuddy/internal/cli/formatter"
	"github.com/alexanderramin/focusbuddy/internal/domain"
)

func newCategoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories", "cat"},
		Short:   "Manage categories",
	}
	cmd.AddCommand(newCategoryAddCmd(app), newCategoryListCmd(app))
	return cmd
}

func newCategoryAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME",
		Short: "Create a category (returns the existing one if the name is taken)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Catalog.EnsureCategory(context.Background(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Category %s %s\n", formatter.Bold(c.Name), formatter.TruncID(c.ID))
			return nil
		},
	}
}

func newCategoryListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cats, err := app.Catalog.ListCategories(ctx)
			if err != nil {
				return err
			}
			if len(cats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No categories yet. Add one with: buddy category add NAME")
				return nil
			}
			rows := make([][]string, 0, len(cats))
			for _, c := range cats {
				tasks, err := app.Catalog.ListTasks(ctx, c.ID)
				if err != nil {
					return err
				}
				rows = append(rows, []string{formatter.TruncID(c.ID), c.Name, fmt.Sprintf("%d", len(tasks))})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderBox("Categories",
				formatter.RenderTable([]string{"ID", "NAME", "TASKS"}, rows, 2)))
			return nil
		},
	}
}

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage tasks",
	}
	cmd.AddCommand(newTaskAddCmd(app), newTaskListCmd(app), newTaskSearchCmd(app))
	return cmd
}

func newTaskAddCmd(app *App) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a task in a category, creating the category if needed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, task, err := app.Catalog.Resolve(context.Background(), category, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s in %s %s\n",
				formatter.Bold(task.Name), cat.Name, formatter.TruncID(task.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category name")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newTaskListCmd(app *App) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
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
			tasks, err := app.Catalog.ListTasks(ctx, categoryID)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
				return nil
			}
			out, err := taskTable(ctx, app, tasks)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderBox("Tasks", out))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only tasks in this category")
	return cmd
}

func newTaskSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search categories and tasks by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cats, tasks, err := app.Catalog.Search(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(cats) == 0 && len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
				return nil
			}
			var b strings.Builder
			if len(cats) > 0 {
				b.WriteString(formatter.Header("Categories") + "\n")
				for _, c := range cats {
					b.WriteString(formatter.TruncID(c.ID) + "  " + c.Name + "\n")
				}
			}
			if len(tasks) > 0 {
				if len(cats) > 0 {
					b.WriteString("\n")
				}
				b.WriteString(formatter.Header("Tasks") + "\n")
				out, err := taskTable(ctx, app, tasks)
				if err != nil {
					return err
				}
				b.WriteString(out)
			}
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}
}

func taskTable(ctx context.Context, app *App, tasks []*domain.Task) (string, error) {
	names := map[string]string{}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		name, ok := names[t.CategoryID]
		if !ok {
			c, err := app.Catalog.GetCategory(ctx, t.CategoryID)
			if err != nil {
				return "", err
			}
			name = c.Name
			names[t.CategoryID] = name
		}
		rows = append(rows, []string{formatter.TruncID(t.ID), t.Name, formatter.Dim(name)})
	}
	return formatter.RenderTable([]string{"ID", "TASK", "CATEGORY"}, rows), nil
}
