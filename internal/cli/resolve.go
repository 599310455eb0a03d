package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/repository"
)

// resolveCategory accepts a category ID, an ID prefix or a name (case-insensitive).
func resolveCategory(ctx context.Context, app *App, ref string) (*domain.Category, error) {
	ref = strings.TrimSpace(ref)
	if c, err := app.Catalog.GetCategory(ctx, ref); err == nil {
		return c, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	cats, err := app.Catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	var byPrefix []*domain.Category
	for _, c := range cats {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(c.ID, ref) {
			byPrefix = append(byPrefix, c)
		}
	}
	if len(byPrefix) == 1 {
		return byPrefix[0], nil
	}
	return nil, fmt.Errorf("category %q: %w", ref, domain.ErrNotFound)
}

// resolveTask accepts a task ID, an ID prefix or a name. Names are looked
// up in categoryID when it is set, otherwise across all categories and
// must then be unambiguous.
func resolveTask(ctx context.Context, app *App, ref, categoryID string) (*domain.Task, error) {
	ref = strings.TrimSpace(ref)
	if t, err := app.Catalog.GetTask(ctx, ref); err == nil {
		return t, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	tasks, err := app.Catalog.ListTasks(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	var byName, byPrefix []*domain.Task
	for _, t := range tasks {
		if strings.EqualFold(t.Name, ref) {
			byName = append(byName, t)
		}
		if len(ref) >= 4 && strings.HasPrefix(t.ID, ref) {
			byPrefix = append(byPrefix, t)
		}
	}
	switch {
	case len(byName) == 1:
		return byName[0], nil
	case len(byName) > 1:
		return nil, fmt.Errorf("task name %q exists in several categories; pass --category", ref)
	case len(byPrefix) == 1:
		return byPrefix[0], nil
	}
	return nil, fmt.Errorf("task %q: %w", ref, domain.ErrNotFound)
}

// resolveSessionID expands a session ID prefix, checking the active
// session and recent completed sessions.
func resolveSessionID(ctx context.Context, app *App, ref string) (string, error) {
	if len(ref) >= 36 {
		return ref, nil
	}
	var matches []string
	if active, ok := app.Tracker.Active(); ok && strings.HasPrefix(active.Session.ID, ref) {
		matches = append(matches, active.Session.ID)
	}
	details, err := app.Stats.Sessions(ctx, repository.SessionFilter{})
	if err != nil {
		return "", err
	}
	for _, d := range details {
		if strings.HasPrefix(d.Session.ID, ref) {
			matches = append(matches, d.Session.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("session %q: %w", ref, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("session prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// filterFlags are the session filter flags shared by listing commands.
type filterFlags struct {
	category string
	task     string
	since    *time.Time
	until    *time.Time
	limit    int
}

func (f *filterFlags) register(cmd *cobra.Command, app *App, defaultLimit int) {
	fs := cmd.Flags()
	fs.StringVar(&f.category, "category", "", "Category name or ID")
	fs.StringVar(&f.task, "task", "", "Task name or ID")
	fs.Var(newTimeValue(&f.since, app.now), "since", "Only sessions started at or after this time")
	fs.Var(newTimeValue(&f.until, app.now), "until", "Only sessions started before this time")
	if defaultLimit >= 0 {
		fs.IntVar(&f.limit, "limit", defaultLimit, "Maximum number of sessions (0 for all)")
	}
}

func (f *filterFlags) resolve(ctx context.Context, app *App) (repository.SessionFilter, error) {
	filter := repository.SessionFilter{StartAfter: f.since, StartBefore: f.until, Limit: f.limit}
	if f.category != "" {
		c, err := resolveCategory(ctx, app, f.category)
		if err != nil {
			return filter, err
		}
		filter.CategoryID = c.ID
	}
	if f.task != "" {
		t, err := resolveTask(ctx, app, f.task, filter.CategoryID)
		if err != nil {
			return filter, err
		}
		filter.TaskID = t.ID
	}
	return filter, nil
}

// sessionLabel looks up the names shown next to a session.
func sessionLabel(ctx context.Context, app *App, taskID string) (string, string) {
	task, err := app.Catalog.GetTask(ctx, taskID)
	if err != nil {
		return "", domain.DisplayID(taskID)
	}
	cat, err := app.Catalog.GetCategory(ctx, task.CategoryID)
	if err != nil {
		return "", task.Name
	}
	return cat.Name, task.Name
}
