// Package research holds a small built-in knowledge base on break timing.
// The guidance is productivity advice only.
package research

// Entry summarizes one published finding about work and break rhythm.
type Entry struct {
	Title    string
	Summary  string
	BreakMin float64 // 0 when the finding gives no figure
	WorkMin  float64 // 0 when the finding gives no figure
	Citation string
	URL      string
}

var entries = []Entry{
	{
		Title: "Pomodoro Technique",
		Summary: "Focused 25-minute sprints separated by 5-minute breaks, " +
			"with a longer 15-30 minute break after every fourth sprint.",
		BreakMin: 5,
		WorkMin:  25,
		Citation: "Cirillo, F. (2006). The Pomodoro Technique.",
		URL:      "https://francescocirillo.com/products/the-pomodoro-technique",
	},
	{
		Title: "DeskTime 52/17 Rule",
		Summary: "The most productive users in a time-tracking study worked about " +
			"52 minutes and then stepped away fully for about 17.",
		BreakMin: 17,
		WorkMin:  52,
		Citation: "Gifford, J. (2014). DeskTime Productivity Study.",
		URL:      "https://desktime.com/blog/17-52-ratio-most-productive-people",
	},
	{
		Title: "Ultradian Rhythms",
		Summary: "Alertness rises and falls in roughly 90-minute cycles; pairing " +
			"90 minutes of work with 20 minutes of rest follows that cycle.",
		BreakMin: 20,
		WorkMin:  90,
		Citation: "Kleitman, N. (1963). Sleep and Wakefulness.",
		URL:      "https://en.wikipedia.org/wiki/Basic_rest%E2%80%93activity_cycle",
	},
	{
		Title: "Attention Restoration Theory",
		Summary: "Short 5-10 minute breaks with exposure to nature, even images " +
			"of it, replenish directed attention.",
		BreakMin: 10,
		Citation: "Kaplan, S. (1995). The restorative benefits of nature.",
		URL:      "https://doi.org/10.1016/0272-4944(95)90001-2",
	},
	{
		Title: "Cognitive Fatigue and Recovery",
		Summary: "Performance on a demanding task drops after about 20 minutes; " +
			"brief diversions restore it.",
		BreakMin: 5,
		WorkMin:  20,
		Citation: "Ariga, A. & Lleras, A. (2011). Brief diversions improve focus.",
		URL:      "https://doi.org/10.1016/j.cognition.2010.12.007",
	},
}

// Entries returns a copy of the knowledge base.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Band classifies a finished break by length.
type Band string

const (
	BandTooShort Band = "too_short"
	BandMicro    Band = "micro"
	BandDeep     Band = "deep"
	BandLong     Band = "long"
	BandTooLong  Band = "too_long"
)

// Classify places a break length in minutes into its advice band.
func Classify(breakMin float64) Band {
	switch {
	case breakMin < 3:
		return BandTooShort
	case breakMin < 8:
		return BandMicro
	case breakMin <= 20:
		return BandDeep
	case breakMin <= 35:
		return BandLong
	default:
		return BandTooLong
	}
}

var advice = map[Band]string{
	BandTooShort: "Very short break. Around 5 minutes away from the screen is usually " +
		"needed to restore attention.",
	BandMicro: "Good micro-break, right in the 5-minute range Pomodoro recommends.",
	BandDeep: "Solid recovery break. The 52/17 and ultradian findings both point " +
		"to 15-20 minutes for deep rest.",
	BandLong: "Extended break, the Pomodoro long-break zone. Fine after several " +
		"sprints, but near the limit for keeping momentum.",
	BandTooLong: "Long break, over 35 minutes. Re-engaging gets harder from here; " +
		"ease back in when ready.",
}

// Advice returns feedback for a finished break of the given length.
func Advice(breakMin float64) string {
	return advice[Classify(breakMin)]
}

// SuggestBreakLength maps minutes already worked to a recommended break.
func SuggestBreakLength(workMin float64) float64 {
	switch {
	case workMin < 25:
		return 5
	case workMin < 55:
		return 10
	case workMin < 95:
		return 17
	default:
		return 20
	}
}
