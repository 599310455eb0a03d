// Package aggregate projects a session's event log into its cached aggregates.
package aggregate

import (
	"time"

	"github.com/alexanderramin/focusbuddy/internal/domain"
)

// Anomaly is an event the replay tolerated but could not interpret,
// such as a break_end with no open break_start.
type Anomaly struct {
	Event  domain.Event
	Reason string
}

// Result is the outcome of replaying one session's events.
type Result struct {
	Aggregates domain.Aggregates
	// FocusBlocks holds every closed focus block in minutes, in order.
	FocusBlocks []float64
	Anomalies   []Anomaly
}

// Replay walks an ordered event list and computes the session aggregates.
//
// Events must already be ordered by time, ties broken by append order; Replay does
// not re-sort. Gross duration spans the first work_start to the last work_end and is
// zero if either is missing. Net focused minutes are not clamped at zero.
func Replay(events []domain.Event) Result {
	var (
		res        Result
		workStart  *time.Time
		workEnd    *time.Time
		cursor     *time.Time
		openBreak  *time.Time
		openProc   *time.Time
		breakTotal float64
		procTotal  float64
	)

	closeBlock := func(at time.Time) {
		if cursor == nil {
			return
		}
		if block := minutesBetween(*cursor, at); block > 0 {
			res.FocusBlocks = append(res.FocusBlocks, block)
		}
		cursor = nil
	}

	for _, evt := range events {
		at := evt.At
		switch evt.Kind {
		case domain.EventWorkStart:
			if workStart == nil {
				workStart = &at
			}
			cursor = &at

		case domain.EventBreakStart:
			closeBlock(at)
			res.Aggregates.InterruptionCount++
			openBreak = &at

		case domain.EventProcrastinationStart:
			closeBlock(at)
			res.Aggregates.InterruptionCount++
			openProc = &at

		case domain.EventBreakEnd:
			if openBreak != nil {
				breakTotal += minutesBetween(*openBreak, at)
				openBreak = nil
			} else {
				res.Anomalies = append(res.Anomalies, Anomaly{Event: evt, Reason: "break_end without open break_start"})
			}
			cursor = &at

		case domain.EventProcrastinationEnd:
			if openProc != nil {
				procTotal += minutesBetween(*openProc, at)
				openProc = nil
			} else {
				res.Anomalies = append(res.Anomalies, Anomaly{Event: evt, Reason: "procrastination_end without open procrastination_start"})
			}
			cursor = &at

		case domain.EventWorkEnd:
			closeBlock(at)
			workEnd = &at

		case domain.EventBurnout:
			// Burnout is a marker only; it does not affect durations.
		}
	}

	agg := &res.Aggregates
	if workStart != nil && workEnd != nil {
		agg.GrossMin = minutesBetween(*workStart, *workEnd)
	}
	agg.BreakMin = breakTotal
	agg.ProcrastinationMin = procTotal
	agg.NetFocusedMin = agg.GrossMin - breakTotal - procTotal

	agg.LongestFocusBlockMin = agg.NetFocusedMin
	if len(res.FocusBlocks) > 0 {
		longest := res.FocusBlocks[0]
		for _, b := range res.FocusBlocks[1:] {
			if b > longest {
				longest = b
			}
		}
		agg.LongestFocusBlockMin = longest
	}

	if agg.GrossMin > 0 {
		ratio := agg.NetFocusedMin / agg.GrossMin
		agg.FocusRatio = &ratio
	}
	return res
}

// Equal reports whether two aggregate projections match within a small tolerance.
// Used when auditing a stored session against a fresh replay.
func Equal(a, b domain.Aggregates) bool {
	const eps = 1e-6
	near := func(x, y float64) bool {
		d := x - y
		return d < eps && d > -eps
	}
	if !near(a.GrossMin, b.GrossMin) || !near(a.BreakMin, b.BreakMin) ||
		!near(a.ProcrastinationMin, b.ProcrastinationMin) || !near(a.NetFocusedMin, b.NetFocusedMin) ||
		!near(a.LongestFocusBlockMin, b.LongestFocusBlockMin) || a.InterruptionCount != b.InterruptionCount {
		return false
	}
	if (a.FocusRatio == nil) != (b.FocusRatio == nil) {
		return false
	}
	return a.FocusRatio == nil || near(*a.FocusRatio, *b.FocusRatio)
}

// OpenInterval returns the start of the break or procrastination interval that is
// still open at the end of the event list, if any.
func OpenInterval(events []domain.Event) (domain.EventKind, time.Time, bool) {
	var (
		kind domain.EventKind
		at   time.Time
		open bool
	)
	for _, evt := range events {
		switch evt.Kind {
		case domain.EventBreakStart, domain.EventProcrastinationStart:
			kind, at, open = evt.Kind, evt.At, true
		case domain.EventBreakEnd, domain.EventProcrastinationEnd, domain.EventWorkEnd:
			open = false
		case domain.EventWorkStart, domain.EventBurnout:
		}
	}
	return kind, at, open
}

// StateAfter derives the tracker state implied by an event list. It is used to
// restore an unfinished session after a restart.
func StateAfter(events []domain.Event) domain.SessionState {
	state := domain.StateIdle
	for _, evt := range events {
		state = evt.Kind.Next(state)
	}
	return state
}

func minutesBetween(from, to time.Time) float64 {
	return to.Sub(from).Minutes()
}
