package cli

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/focusbuddy/internal/cli/formatter"
	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/service"
)

// newOption marks the "create a new one" entry in the picker selects.
const newOption = "\x00new"

func buddyHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// taskPick is what the picker form fills in.
type taskPick struct {
	CategoryID      string
	NewCategoryName string
	TaskID          string
	NewTaskName     string
}

// resolve turns the pick into a task, creating whatever was typed in.
func (p *taskPick) resolve(ctx context.Context, catalog service.CatalogService) (*domain.Category, *domain.Task, error) {
	if p.CategoryID == newOption || p.CategoryID == "" {
		if p.NewCategoryName == "" {
			return nil, nil, errors.New("no category chosen")
		}
		return catalog.Resolve(ctx, p.NewCategoryName, p.NewTaskName)
	}

	cat, err := catalog.GetCategory(ctx, p.CategoryID)
	if err != nil {
		return nil, nil, err
	}
	if p.TaskID == newOption || p.TaskID == "" {
		task, err := catalog.EnsureTask(ctx, cat.ID, p.NewTaskName)
		if err != nil {
			return nil, nil, err
		}
		return cat, task, nil
	}
	task, err := catalog.GetTask(ctx, p.TaskID)
	if err != nil {
		return nil, nil, err
	}
	return cat, task, nil
}

// taskPickerForm asks for a category and a task, offering to create either.
func taskPickerForm(ctx context.Context, catalog service.CatalogService, pick *taskPick) (*huh.Form, error) {
	cats, err := catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	catOptions := make([]huh.Option[string], 0, len(cats)+1)
	for _, c := range cats {
		catOptions = append(catOptions, huh.NewOption(c.Name, c.ID))
	}
	catOptions = append(catOptions, huh.NewOption("+ new category", newOption))

	taskOptions := func() []huh.Option[string] {
		opts := []huh.Option[string]{}
		if pick.CategoryID != "" && pick.CategoryID != newOption {
			tasks, err := catalog.ListTasks(ctx, pick.CategoryID)
			if err == nil {
				for _, t := range tasks {
					opts = append(opts, huh.NewOption(t.Name, t.ID))
				}
			}
		}
		return append(opts, huh.NewOption("+ new task", newOption))
	}

	creatingCategory := func() bool { return pick.CategoryID == newOption }
	creatingTask := func() bool { return creatingCategory() || pick.TaskID == newOption }

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Category").
				Options(catOptions...).
				Value(&pick.CategoryID),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("New category").
				Value(&pick.NewCategoryName).
				Validate(validateName),
		).WithHideFunc(func() bool { return !creatingCategory() }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Task").
				OptionsFunc(taskOptions, &pick.CategoryID).
				Value(&pick.TaskID),
		).WithHideFunc(creatingCategory),
		huh.NewGroup(
			huh.NewInput().
				Title("New task").
				Value(&pick.NewTaskName).
				Validate(validateName),
		).WithHideFunc(func() bool { return !creatingTask() }),
	).WithTheme(buddyHuhTheme()).WithShowHelp(false), nil
}

func validateName(s string) error {
	_, err := domain.NormalizeName(s)
	return err
}
