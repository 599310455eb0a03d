package domain

import "time"

// Aggregates is the cached projection of a session's event log.
// Every field is recomputable by replaying the events.
type Aggregates struct {
	GrossMin             float64
	BreakMin             float64
	ProcrastinationMin   float64
	NetFocusedMin        float64
	LongestFocusBlockMin float64
	InterruptionCount    int
	// FocusRatio is nil when the gross duration is not positive.
	FocusRatio *float64
}

// Session is one continuous work period owned by a task.
type Session struct {
	ID        string
	TaskID    string
	StartedAt time.Time
	EndedAt   *time.Time

	Aggregates
}

// IsCompleted reports whether the session has been finalized.
func (s *Session) IsCompleted() bool {
	return s.EndedAt != nil
}

// Finalize stamps the end time and the computed aggregates.
func (s *Session) Finalize(endedAt time.Time, agg Aggregates) {
	s.EndedAt = &endedAt
	s.Aggregates = agg
}

// Event is an immutable timestamped fact inside a session.
type Event struct {
	ID        string
	SessionID string
	// Seq is the per-session append order; it breaks ties between equal timestamps.
	Seq  int
	Kind EventKind
	At   time.Time
}

// ReminderLog records a proactive prompt and the user's eventual response.
type ReminderLog struct {
	ID          string
	SessionID   string
	Kind        ReminderKind
	PromptedAt  time.Time
	Response    *ReminderResponse
	RespondedAt *time.Time
}

// ModelVersion is an audit record of one training run for a forecast target.
type ModelVersion struct {
	ID        string
	Target    string
	Version   int
	TrainedAt time.Time
	Stats     TrainingStats
}

// TrainingStats summarizes the samples a training run saw.
type TrainingStats struct {
	SampleCount int       `json:"sample_count"`
	Mean        float64   `json:"mean"`
	Std         float64   `json:"std"`
	Values      []float64 `json:"values"`
}
