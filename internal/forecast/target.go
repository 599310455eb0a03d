package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/focusbuddy/internal/domain"
)

// ErrUnknownTarget indicates a target name outside the supported set.
var ErrUnknownTarget = errors.New("unknown forecast target")

// Target is a forecastable session metric, always in minutes.
type Target string

const (
	TargetTimeToBurnout           Target = "time_to_burnout"
	TargetTimeToProcrastination   Target = "time_to_procrastination"
	TargetTimeToBreak             Target = "time_to_break"
	TargetNetFocusedTime          Target = "net_focused_time"
	TargetTimeToFirstInterruption Target = "time_to_first_interruption"
	TargetFocusBlockLength        Target = "focus_block_length"
)

// Targets lists every supported target in training order.
var Targets = []Target{
	TargetTimeToBurnout,
	TargetTimeToProcrastination,
	TargetTimeToBreak,
	TargetNetFocusedTime,
	TargetTimeToFirstInterruption,
	TargetFocusBlockLength,
}

// ParseTarget validates a target name.
func ParseTarget(s string) (Target, error) {
	for _, t := range Targets {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownTarget)
}

// History is a completed session together with its ordered events.
type History struct {
	Session *domain.Session
	Events  []domain.Event
}

// Extract pulls one target value out of a completed session.
// The bool is false when the session has no value for the target.
func Extract(target Target, h History) (float64, bool) {
	s := h.Session
	if s == nil {
		return 0, false
	}
	switch target {
	case TargetTimeToBurnout:
		return minutesToFirst(h, domain.EventBurnout)
	case TargetTimeToProcrastination:
		return minutesToFirst(h, domain.EventProcrastinationStart)
	case TargetTimeToBreak:
		return minutesToFirst(h, domain.EventBreakStart)
	case TargetNetFocusedTime:
		return s.NetFocusedMin, s.IsCompleted()
	case TargetFocusBlockLength:
		return s.LongestFocusBlockMin, s.IsCompleted()
	case TargetTimeToFirstInterruption:
		if v, ok := minutesToFirst(h, domain.EventBreakStart, domain.EventProcrastinationStart); ok {
			return v, true
		}
		// No interruption: the whole session was focus.
		return s.GrossMin, s.IsCompleted()
	}
	return 0, false
}

// Samples extracts the strictly positive values of target, preserving input order.
func Samples(target Target, history []History) []float64 {
	var out []float64
	for _, h := range history {
		if v, ok := Extract(target, h); ok && v > 0 {
			out = append(out, v)
		}
	}
	return out
}

func minutesToFirst(h History, kinds ...domain.EventKind) (float64, bool) {
	for _, e := range h.Events {
		for _, k := range kinds {
			if e.Kind == k {
				return minutesSince(h.Session.StartedAt, e.At), true
			}
		}
	}
	return 0, false
}

func minutesSince(from, to time.Time) float64 {
	return to.Sub(from).Minutes()
}
