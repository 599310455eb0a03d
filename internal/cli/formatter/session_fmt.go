package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/forecast"
	"github.com/alexanderramin/focusbuddy/internal/repository"
	"github.com/alexanderramin/focusbuddy/internal/service"
)

// SessionLabel names the task of an active session.
type SessionLabel struct {
	Category string
	Task     string
}

func (l SessionLabel) String() string {
	if l.Category == "" {
		return l.Task
	}
	return l.Category + " / " + l.Task
}

// FormatStatus renders the tracker's current position.
func FormatStatus(active service.ActiveSession, label SessionLabel, elapsedMin, intervalMin float64) string {
	pairs := [][2]string{
		{"state", StateIndicator(active.State)},
		{"task", Bold(label.String())},
		{"session", TruncID(active.Session.ID)},
		{"started", active.Session.StartedAt.Local().Format("15:04")},
		{"elapsed", FormatClock(elapsedMin)},
	}
	if active.IntervalStart != nil {
		pairs = append(pairs, [2]string{"interval", FormatClock(intervalMin)})
	}
	return RenderBox("Session", strings.TrimRight(RenderPairs(pairs), "\n"))
}

// FormatAggregates renders a finished session's aggregates.
func FormatAggregates(agg domain.Aggregates) string {
	pairs := [][2]string{
		{"gross", FormatMinutes(agg.GrossMin)},
		{"net focused", StyleGreen.Render(FormatMinutes(agg.NetFocusedMin))},
		{"break", FormatMinutes(agg.BreakMin)},
		{"procrastination", FormatMinutes(agg.ProcrastinationMin)},
		{"longest block", FormatMinutes(agg.LongestFocusBlockMin)},
		{"interruptions", fmt.Sprintf("%d", agg.InterruptionCount)},
		{"focus ratio", FormatRatio(agg.FocusRatio)},
	}
	out := RenderPairs(pairs)
	if agg.FocusRatio != nil {
		out += "\n" + RenderProgress(*agg.FocusRatio, 24) + "\n"
	}
	return out
}

// FormatEndResult renders the summary printed when a session ends.
func FormatEndResult(res *service.EndResult) string {
	var b strings.Builder
	if res.AutoClosed != nil {
		b.WriteString(Dim(fmt.Sprintf("closed open interval with %s", res.AutoClosed.Kind)) + "\n\n")
	}
	b.WriteString(FormatAggregates(res.Session.Aggregates))
	if len(res.Anomalies) > 0 {
		b.WriteString("\n" + StyleYellow.Render(fmt.Sprintf("%d malformed event(s) ignored", len(res.Anomalies))) + "\n")
	}
	return RenderBox("Session complete", strings.TrimRight(b.String(), "\n"))
}

// FormatSessionList renders completed sessions, newest first.
func FormatSessionList(details []repository.SessionDetail, now time.Time) string {
	headers := []string{"ID", "TASK", "STARTED", "GROSS", "NET", "BREAK", "PROCR.", "INT.", "RATIO"}
	rows := make([][]string, 0, len(details))
	for _, d := range details {
		s := d.Session
		rows = append(rows, []string{
			TruncID(s.ID),
			d.CategoryName + Dim(" / ") + d.TaskName,
			HumanTimestamp(s.StartedAt, now),
			FormatMinutes(s.GrossMin),
			FormatMinutes(s.NetFocusedMin),
			FormatMinutes(s.BreakMin),
			FormatMinutes(s.ProcrastinationMin),
			fmt.Sprintf("%d", s.InterruptionCount),
			FormatRatio(s.FocusRatio),
		})
	}
	return RenderBox("Sessions", RenderTable(headers, rows, 3, 4, 5, 6, 7, 8))
}

// FormatDashboard renders averaged statistics over a set of sessions.
func FormatDashboard(d *service.Dashboard) string {
	if d.SessionCount == 0 {
		return RenderBox("Stats", Dim("No completed sessions yet."))
	}
	pairs := [][2]string{
		{"sessions", fmt.Sprintf("%d", d.SessionCount)},
		{"total focused", StyleGreen.Render(FormatMinutes(d.TotalNetMin))},
		{"avg gross", FormatMinutes(d.AvgGrossMin)},
		{"avg net", FormatMinutes(d.AvgNetMin)},
		{"avg break", FormatMinutes(d.AvgBreakMin)},
		{"avg procrastination", FormatMinutes(d.AvgProcrastinationMin)},
		{"avg longest block", FormatMinutes(d.AvgLongestBlockMin)},
		{"avg interruptions", fmt.Sprintf("%.1f", d.AvgInterruptions)},
		{"avg focus ratio", FormatRatio(d.AvgFocusRatio)},
		{"time to burnout", FormatOptionalMinutes(d.AvgTimeToBurnout)},
		{"time to procrastinate", FormatOptionalMinutes(d.AvgTimeToProcrastinate)},
		{"time to break", FormatOptionalMinutes(d.AvgTimeToBreak)},
		{"burnout sessions", fmt.Sprintf("%d", d.BurnoutSessionCount)},
		{"procrastination sessions", fmt.Sprintf("%d", d.ProcrastinationSessions)},
	}
	out := RenderPairs(pairs)
	if len(d.FocusBlocks) > 0 {
		out += "\n" + Header("Longest focus blocks") + "\n" + FormatHistogram(d.FocusBlocks, 20)
	}
	return RenderBox("Stats", strings.TrimRight(out, "\n"))
}

// FormatHistogram renders one bar per bin, scaled to the fullest bin.
func FormatHistogram(bins []forecast.Bin, width int) string {
	peak := 0
	for _, b := range bins {
		peak = max(peak, b.Count)
	}
	rows := make([][]string, 0, len(bins))
	for _, b := range bins {
		filled := 0
		if peak > 0 {
			filled = b.Count * width / peak
		}
		rows = append(rows, []string{
			FormatMinutes(b.From) + "–" + FormatMinutes(b.To),
			StyleBlue.Render(strings.Repeat(filledBlock, filled)),
			fmt.Sprintf("%d", b.Count),
		})
	}
	return RenderTable([]string{"MINUTES", "", "SESSIONS"}, rows, 2)
}

// FormatAudit renders a session's events next to the replayed aggregates.
func FormatAudit(a *service.Audit) string {
	var b strings.Builder
	b.WriteString(Header("Events") + "\n")
	b.WriteString(EventTimeline(a.Events))

	b.WriteString("\n" + Header("Aggregates") + "\n")
	if a.Session.IsCompleted() {
		b.WriteString(FormatAggregates(a.Session.Aggregates))
	} else {
		b.WriteString(Dim("session is still active") + "\n")
	}

	if len(a.Replayed.FocusBlocks) > 0 {
		blocks := make([]string, len(a.Replayed.FocusBlocks))
		for i, m := range a.Replayed.FocusBlocks {
			blocks[i] = FormatMinutes(m)
		}
		b.WriteString("\n" + Dim("focus blocks  ") + strings.Join(blocks, ", ") + "\n")
	}

	if len(a.FirstOffsets) > 0 {
		kinds := make([]string, 0, len(a.FirstOffsets))
		for k := range a.FirstOffsets {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		pairs := make([][2]string, 0, len(kinds))
		for _, k := range kinds {
			pairs = append(pairs, [2]string{"first " + eventLabel(domain.EventKind(k)), "+" + FormatMinutes(a.FirstOffsets[domain.EventKind(k)])})
		}
		b.WriteString("\n" + RenderPairs(pairs))
	}

	if len(a.Reminders) > 0 {
		b.WriteString("\n" + Header("Reminders") + "\n")
		rows := make([][]string, 0, len(a.Reminders))
		for _, r := range a.Reminders {
			resp := Dim("--")
			if r.Response != nil {
				resp = string(*r.Response)
			}
			rows = append(rows, []string{string(r.Kind), r.PromptedAt.Local().Format("15:04"), resp})
		}
		b.WriteString(RenderTable([]string{"KIND", "AT", "RESPONSE"}, rows))
	}

	b.WriteString("\n")
	switch {
	case a.Consistent:
		b.WriteString(StyleGreen.Render("✔ stored aggregates match the event log"))
	default:
		b.WriteString(StyleRed.Render("✖ stored aggregates differ from the event log") + "\n\n")
		b.WriteString(Header("Replayed") + "\n")
		b.WriteString(strings.TrimRight(FormatAggregates(a.Replayed.Aggregates), "\n"))
	}
	for _, an := range a.Replayed.Anomalies {
		b.WriteString("\n" + StyleYellow.Render(fmt.Sprintf("! %s at seq %d: %s", an.Event.Kind, an.Event.Seq, an.Reason)))
	}

	title := "Session " + domain.DisplayID(a.Session.ID)
	if a.Task != nil {
		title += " · " + a.Task.Name
	}
	return RenderBox(title, b.String())
}

// FormatPrediction renders one forecast.
func FormatPrediction(p service.Prediction) string {
	label := strings.ReplaceAll(string(p.Target), "_", " ")
	if !p.Available() {
		return fmt.Sprintf("%s  %s  %s\n", Bold(label), MethodBadge(p.Method),
			Dim(fmt.Sprintf("(%d samples, need 3)", p.Samples)))
	}
	line := fmt.Sprintf("%s  %s  %s  %s", Bold(label), StyleGreen.Render(FormatMinutes(p.Value)),
		MethodBadge(p.Method), Dim(fmt.Sprintf("(%d samples)", p.Samples)))
	if p.FellBack {
		line += "  " + StyleYellow.Render("from all sessions")
	}
	return line + "\n"
}

// FormatTraining renders the outcome of a training run.
func FormatTraining(outcomes []service.TrainingOutcome) string {
	headers := []string{"TARGET", "SAMPLES", "MEAN", "STD", "METHOD", "VERSION"}
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		version := Dim("--")
		if o.Trained() {
			version = fmt.Sprintf("v%d", o.Version)
		}
		rows = append(rows, []string{
			string(o.Target),
			fmt.Sprintf("%d", o.Stats.Count),
			fmt.Sprintf("%.1f", o.Stats.Mean),
			fmt.Sprintf("%.1f", o.Stats.Std),
			MethodBadge(o.Method),
			version,
		})
	}
	return RenderBox("Training", RenderTable(headers, rows, 1, 2, 3))
}
