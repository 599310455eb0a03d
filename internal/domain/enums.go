package domain

import "fmt"

// SessionState is the tracker's position in the work/break/procrastination cycle.
type SessionState string

const (
	StateIdle            SessionState = "idle"
	StateWorking         SessionState = "working"
	StateOnBreak         SessionState = "on_break"
	StateProcrastinating SessionState = "procrastinating"
)

// EventKind is the closed set of facts a session's event log can hold.
type EventKind string

const (
	EventWorkStart            EventKind = "work_start"
	EventWorkEnd              EventKind = "work_end"
	EventBreakStart           EventKind = "break_start"
	EventBreakEnd             EventKind = "break_end"
	EventProcrastinationStart EventKind = "procrastination_start"
	EventProcrastinationEnd   EventKind = "procrastination_end"
	EventBurnout              EventKind = "burnout"
)

// EventKinds lists every valid kind in declaration order.
var EventKinds = []EventKind{
	EventWorkStart,
	EventWorkEnd,
	EventBreakStart,
	EventBreakEnd,
	EventProcrastinationStart,
	EventProcrastinationEnd,
	EventBurnout,
}

// ParseEventKind converts a stored string back into an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	for _, k := range EventKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// IsInterruptionStart reports whether the kind opens a break or procrastination interval.
func (k EventKind) IsInterruptionStart() bool {
	return k == EventBreakStart || k == EventProcrastinationStart
}

// Next returns the state reached by appending an event of kind k while in current.
func (k EventKind) Next(current SessionState) SessionState {
	switch k {
	case EventWorkStart, EventBreakEnd, EventProcrastinationEnd:
		return StateWorking
	case EventBreakStart:
		return StateOnBreak
	case EventProcrastinationStart:
		return StateProcrastinating
	case EventWorkEnd:
		return StateIdle
	case EventBurnout:
	}
	return current
}

// ReminderKind identifies a proactive prompt sent while a session is active.
type ReminderKind string

const (
	ReminderBurnoutCheck         ReminderKind = "burnout_check"
	ReminderProcrastinationNudge ReminderKind = "procrastination_nudge"
	ReminderBreakElapsed         ReminderKind = "break_elapsed"
)

// ReminderResponse is the user's answer to a reminder prompt.
type ReminderResponse string

const (
	ResponseYes       ReminderResponse = "yes"
	ResponseNo        ReminderResponse = "no"
	ResponseDismissed ReminderResponse = "dismissed"
)

// ValidReminderResponses is the canonical set of accepted response strings.
var ValidReminderResponses = map[string]bool{
	"yes": true, "no": true, "dismissed": true,
}
