package driver

import (
	"time"

	"github.com/robfig/cron/v3"
)

// fixedInterval fires every period after the previous activation.
//
// cron.Every rounds to whole seconds; the tick interval is defined in
// milliseconds, so keep it exact.
type fixedInterval struct {
	every time.Duration
}

var _ cron.Schedule = fixedInterval{}

func (s fixedInterval) Next(t time.Time) time.Time {
	return t.Add(s.every)
}
