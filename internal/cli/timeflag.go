package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// timeValue is a pflag.Value for optional instants. It accepts RFC3339,
// "YYYY-MM-DD[ HH:MM]" in local time, or "Nd" for N days before now.
type timeValue struct {
	target **time.Time
	now    func() time.Time
}

var _ pflag.Value = (*timeValue)(nil)

func newTimeValue(target **time.Time, now func() time.Time) *timeValue {
	return &timeValue{target: target, now: now}
}

func (v *timeValue) String() string {
	if v.target == nil || *v.target == nil {
		return ""
	}
	return (*v.target).Format(time.RFC3339)
}

func (v *timeValue) Set(s string) error {
	t, err := parseTime(strings.TrimSpace(s), v.now())
	if err != nil {
		return err
	}
	*v.target = &t
	return nil
}

func (v *timeValue) Type() string { return "time" }

func parseTime(s string, now time.Time) (time.Time, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err == nil && n >= 0 {
			return now.AddDate(0, 0, -n), nil
		}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use YYYY-MM-DD, YYYY-MM-DD HH:MM, RFC3339 or Nd", s)
}
