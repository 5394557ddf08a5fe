package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// CronSpec is a parsed five-field cron expression evaluated in UTC.
type CronSpec struct {
	expr  string
	sched cron.Schedule
}

func Parse(expr string) (CronSpec, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return CronSpec{}, fmt.Errorf("empty expression")
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return CronSpec{}, err
	}
	return CronSpec{expr: expr, sched: sched}, nil
}

// Next returns the first activation strictly after t.
func (s CronSpec) Next(t time.Time) time.Time {
	return s.sched.Next(t.UTC())
}

// Matches reports whether the minute containing t is an activation minute.
func (s CronSpec) Matches(t time.Time) bool {
	minute := t.UTC().Truncate(time.Minute)
	return s.sched.Next(minute.Add(-time.Second)).Equal(minute)
}

func (s CronSpec) String() string { return s.expr }
