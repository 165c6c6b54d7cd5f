// Package countdown computes the time left until the fixed target instant.
package countdown

import (
	"fmt"
	"time"
)

// IntervalMillis is the tick period.
const IntervalMillis = 3_600_000

// Interval is IntervalMillis as a time.Duration.
const Interval = IntervalMillis * time.Millisecond

// Target is the instant the countdown runs to: midnight of 1 January 2027, WIB.
var Target = time.Date(2027, time.January, 1, 0, 0, 0, 0, time.FixedZone("WIB", 7*60*60))

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// Remaining is the decomposed time left until the target.
// When Reached is true every numeric field is zero.
type Remaining struct {
	Days    int64 `json:"days"`
	Hours   int   `json:"hours"`
	Minutes int   `json:"minutes"`
	Seconds int   `json:"seconds"`
	Reached bool  `json:"reached"`
}

// Compute returns the time left from now until target.
// A target equal to now counts as reached.
func Compute(now, target time.Time) Remaining {
	delta := target.Sub(now)
	if delta <= 0 {
		return Remaining{Reached: true}
	}
	ms := delta.Milliseconds()
	return Remaining{
		Days:    ms / msPerDay,
		Hours:   int((ms % msPerDay) / msPerHour),
		Minutes: int((ms % msPerHour) / msPerMinute),
		Seconds: int((ms % msPerMinute) / msPerSecond),
	}
}

// Clock renders the sub-day part as zero-padded HH:MM:SS.
func (r Remaining) Clock() string {
	return fmt.Sprintf("%02d:%02d:%02d", r.Hours, r.Minutes, r.Seconds)
}

// Total reconstructs the duration the fields describe (whole seconds).
func (r Remaining) Total() time.Duration {
	return time.Duration(r.Days)*24*time.Hour +
		time.Duration(r.Hours)*time.Hour +
		time.Duration(r.Minutes)*time.Minute +
		time.Duration(r.Seconds)*time.Second
}

// Clock is the source of "now" for a tick.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
