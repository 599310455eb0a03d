package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"go.uber.org/zap"

	"github.com/alexanderramin/focusbuddy/internal/cli/formatter"
	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/research"
	"github.com/alexanderramin/focusbuddy/internal/service"
)

type companionMode int

const (
	modeTracking companionMode = iota
	modePicking
	modeConfirmQuit
)

// ── messages ─────────────────────────────────────────────────────────────────

type tickMsg time.Time

// promptMsg delivers a reminder from the reminder service.
type promptMsg service.Prompt

// transitionMsg reports the outcome of a tracker command.
type transitionMsg struct {
	notice string
	err    error
	quit   bool
}

type labelMsg formatter.SessionLabel

type insightsMsg struct {
	optimal *float64
	breakAt *float64
}

// ── model ────────────────────────────────────────────────────────────────────

// companionModel is the bubbletea model behind `buddy companion`. Tracker
// state is read from the tracker on every render; the model only keeps
// what the tracker does not know.
type companionModel struct {
	app  *App
	ctx  context.Context
	keys companionKeys
	help help.Model

	mode companionMode
	form *huh.Form
	pick *taskPick

	label    formatter.SessionLabel
	insights insightsMsg
	prompt   *service.Prompt
	notice   string
	err      error
	quitting bool
}

func newCompanionModel(ctx context.Context, app *App) companionModel {
	return companionModel{
		app:  app,
		ctx:  ctx,
		keys: newCompanionKeys(),
		help: help.New(),
	}
}

func (m companionModel) Init() tea.Cmd {
	return tea.Batch(
		tick(),
		waitForPrompt(m.app.Prompts),
		m.run(func(context.Context) (string, error) { return "", nil }),
	)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitForPrompt(prompts <-chan service.Prompt) tea.Cmd {
	if prompts == nil {
		return nil
	}
	return func() tea.Msg {
		p, ok := <-prompts
		if !ok {
			return nil
		}
		return promptMsg(p)
	}
}

// run executes fn off the UI loop, then re-arms the reminders for
// whatever state the tracker ended up in.
func (m companionModel) run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	app, ctx := m.app, m.ctx
	return func() tea.Msg {
		notice, err := fn(ctx)
		if app.Reminders != nil {
			app.Reminders.Sync(ctx, app.Tracker.State())
		}
		if err != nil {
			notice = ""
			app.logger().Debug("companion command failed", zap.Error(err))
		}
		return transitionMsg{notice: notice, err: err}
	}
}

func (m companionModel) loadLabel() tea.Cmd {
	app, ctx := m.app, m.ctx
	return func() tea.Msg {
		active, ok := app.Tracker.Active()
		if !ok {
			return labelMsg{}
		}
		cat, task := sessionLabel(ctx, app, active.Session.TaskID)
		return labelMsg{Category: cat, Task: task}
	}
}

func (m companionModel) loadInsights() tea.Cmd {
	app, ctx := m.app, m.ctx
	return func() tea.Msg {
		var msg insightsMsg
		categoryID := ""
		if active, ok := app.Tracker.Active(); ok {
			if task, err := app.Catalog.GetTask(ctx, active.Session.TaskID); err == nil {
				categoryID = task.CategoryID
			}
		}
		if v, ok, err := app.Forecast.OptimalSessionLength(ctx, categoryID); err == nil && ok {
			msg.optimal = &v
		}
		if v, ok, err := app.Forecast.BreakInsertionPoint(ctx, categoryID); err == nil && ok {
			msg.breakAt = &v
		}
		return msg
	}
}

// ── update ───────────────────────────────────────────────────────────────────

func (m companionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tick()

	case promptMsg:
		p := service.Prompt(msg)
		m.prompt = &p
		return m, waitForPrompt(m.app.Prompts)

	case transitionMsg:
		m.err = msg.err
		if msg.notice != "" || msg.err != nil {
			m.notice = msg.notice
		}
		if msg.quit && msg.err == nil {
			m.quitting = true
			return m, tea.Quit
		}
		return m, tea.Batch(m.loadLabel(), m.loadInsights())

	case labelMsg:
		m.label = formatter.SessionLabel(msg)
		return m, nil

	case insightsMsg:
		m.insights = msg
		return m, nil
	}

	if m.mode == modePicking {
		return m.updatePicker(msg)
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(k)
	}
	return m, nil
}

func (m companionModel) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
		m.mode, m.form, m.notice = modeTracking, nil, "Cancelled."
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.mode, m.form = modeTracking, nil
		return m, tea.Batch(cmd, m.beginPicked())
	case huh.StateAborted:
		m.mode, m.form, m.notice = modeTracking, nil, "Cancelled."
		return m, nil
	}
	return m, cmd
}

func (m companionModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	if m.mode == modeConfirmQuit {
		switch {
		case key.Matches(msg, m.keys.Yes):
			tracker := m.app.Tracker
			cmd := m.run(func(ctx context.Context) (string, error) {
				_, err := tracker.End(ctx)
				return "", err
			})
			return m, func() tea.Msg {
				res := cmd().(transitionMsg)
				res.quit = true
				return res
			}
		case key.Matches(msg, m.keys.No), key.Matches(msg, m.keys.Dismiss):
			m.mode = modeTracking
		}
		return m, nil
	}

	if m.prompt != nil {
		switch {
		case key.Matches(msg, m.keys.Yes):
			return m.answer(domain.ResponseYes)
		case key.Matches(msg, m.keys.No):
			return m.answer(domain.ResponseNo)
		case key.Matches(msg, m.keys.Dismiss):
			return m.answer(domain.ResponseDismissed)
		}
	}

	tracker := m.app.Tracker
	state := tracker.State()

	switch {
	case key.Matches(msg, m.keys.Quit):
		if state != domain.StateIdle {
			m.mode = modeConfirmQuit
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Begin):
		if state != domain.StateIdle {
			m.notice = "A session is already running."
			return m, nil
		}
		return m.startPicker()

	case key.Matches(msg, m.keys.Break):
		if state == domain.StateOnBreak {
			return m, m.run(endBreak(tracker))
		}
		return m, m.run(func(ctx context.Context) (string, error) {
			_, err := tracker.StartBreak(ctx)
			return "Enjoy your break.", err
		})

	case key.Matches(msg, m.keys.Procrastinate):
		if state == domain.StateProcrastinating {
			return m, m.run(endProcrastination(tracker))
		}
		return m, m.run(func(ctx context.Context) (string, error) {
			_, err := tracker.StartProcrastination(ctx)
			return "Noted. I'll nudge you in a bit.", err
		})

	case key.Matches(msg, m.keys.Resume):
		if state == domain.StateOnBreak {
			return m, m.run(endBreak(tracker))
		}
		return m, m.run(endProcrastination(tracker))

	case key.Matches(msg, m.keys.Burnout):
		return m, m.run(logBurnout(tracker))

	case key.Matches(msg, m.keys.End):
		return m, m.run(func(ctx context.Context) (string, error) {
			res, err := tracker.End(ctx)
			if err != nil {
				return "", err
			}
			agg := res.Session.Aggregates
			return fmt.Sprintf("Session complete: %s focused of %s (%s).",
				formatter.FormatMinutes(agg.NetFocusedMin), formatter.FormatMinutes(agg.GrossMin),
				formatter.FormatRatio(agg.FocusRatio)), nil
		})
	}
	return m, nil
}

func (m companionModel) startPicker() (tea.Model, tea.Cmd) {
	pick := &taskPick{}
	form, err := taskPickerForm(m.ctx, m.app.Catalog, pick)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.mode, m.form, m.pick = modePicking, form, pick
	m.notice, m.err = "", nil
	return m, m.form.Init()
}

func (m companionModel) beginPicked() tea.Cmd {
	pick, app := m.pick, m.app
	return m.run(func(ctx context.Context) (string, error) {
		cat, task, err := pick.resolve(ctx, app.Catalog)
		if err != nil {
			return "", err
		}
		if _, err := app.Tracker.Begin(ctx, task.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Started %s.", formatter.SessionLabel{Category: cat.Name, Task: task.Name}), nil
	})
}

// answer records the response and, for a yes, performs what the prompt
// offered, provided the tracker is still in the state it was asked about.
func (m companionModel) answer(resp domain.ReminderResponse) (tea.Model, tea.Cmd) {
	p := *m.prompt
	m.prompt = nil
	app := m.app
	return m, m.run(func(ctx context.Context) (string, error) {
		if err := app.Reminders.Respond(ctx, p.ID, resp); err != nil {
			return "", err
		}
		if resp != domain.ResponseYes {
			return "", nil
		}
		state := app.Tracker.State()
		switch p.Kind {
		case domain.ReminderBurnoutCheck:
			if state != domain.StateIdle {
				return logBurnout(app.Tracker)(ctx)
			}
		case domain.ReminderProcrastinationNudge:
			if state == domain.StateProcrastinating {
				return endProcrastination(app.Tracker)(ctx)
			}
		case domain.ReminderBreakElapsed:
			if state == domain.StateOnBreak {
				return endBreak(app.Tracker)(ctx)
			}
		}
		return "", nil
	})
}

func endBreak(tracker service.TrackerService) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		breakMin := tracker.CurrentIntervalMinutes()
		if _, err := tracker.EndBreak(ctx); err != nil {
			return "", err
		}
		return research.Advice(breakMin), nil
	}
}

func endProcrastination(tracker service.TrackerService) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if _, err := tracker.EndProcrastination(ctx); err != nil {
			return "", err
		}
		return backToFocus, nil
	}
}

func logBurnout(tracker service.TrackerService) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if _, err := tracker.LogBurnout(ctx); err != nil {
			return "", err
		}
		return "Burnout logged. Press b for a break or e to end the session.", nil
	}
}

// ── view ─────────────────────────────────────────────────────────────────────

func (m companionModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(formatter.StyleHeader.Render("FOCUSBUDDY") + "\n\n")

	if m.mode == modePicking && m.form != nil {
		b.WriteString(m.form.View() + "\n\n")
		b.WriteString(formatter.Dim("enter select · esc cancel"))
		return b.String()
	}

	tracker := m.app.Tracker
	b.WriteString(formatter.StateIndicator(tracker.State()))
	if active, ok := tracker.Active(); ok {
		if m.label.Task != "" {
			b.WriteString("  " + formatter.Bold(m.label.String()))
		}
		b.WriteString("\n" + formatter.Dim("elapsed ") + formatter.FormatClock(tracker.ElapsedMinutes()))
		if active.IntervalStart != nil {
			b.WriteString(formatter.Dim("   interval ") + formatter.FormatClock(tracker.CurrentIntervalMinutes()))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("  " + formatter.Dim("press w to start working") + "\n")
	}

	if hint := m.insightsLine(); hint != "" {
		b.WriteString(formatter.Dim(hint) + "\n")
	}

	if m.prompt != nil {
		b.WriteString("\n" + formatter.RenderBox("", m.prompt.Message+"\n\n"+formatter.Dim(promptChoices(m.prompt.Kind))))
	}
	if m.mode == modeConfirmQuit {
		b.WriteString("\n" + formatter.StyleYellowBold.Render("End the session and quit? y/n") + "\n")
	}
	if m.notice != "" {
		b.WriteString("\n" + m.notice + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + formatter.StyleRed.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m companionModel) insightsLine() string {
	var parts []string
	if m.insights.optimal != nil {
		parts = append(parts, "suggested length "+formatter.FormatMinutes(*m.insights.optimal))
	}
	if m.insights.breakAt != nil {
		parts = append(parts, "break after "+formatter.FormatMinutes(*m.insights.breakAt))
	}
	return strings.Join(parts, " · ")
}

func promptChoices(kind domain.ReminderKind) string {
	switch kind {
	case domain.ReminderBurnoutCheck:
		return "y log burnout · n keep going · d dismiss"
	default:
		return "y back to work · n not yet · d dismiss"
	}
}
