package message

import (
	"strconv"

	"countdown/internal/countdown"
)

const (
	Title   = "⏳ Countdown to New Year 2027"
	Intro   = "Here is how much time is left until the new year:"
	Started = "🎉 *The event has begun!* Happy New Year 2027! 🎆"

	// TargetLine is the target instant across WIB, WITA and WIT.
	TargetLine = "🗓️ Target: 1 Jan 2027 · 00:00 WIB · 01:00 WITA · 02:00 WIT"
)

// Format renders r into a payload. It is pure: equal inputs give equal payloads.
func Format(r countdown.Remaining) Payload {
	if r.Reached {
		return Payload{
			Text:   "The event has begun!",
			Blocks: []Block{Section(Started)},
		}
	}

	days := strconv.FormatInt(r.Days, 10)
	clock := r.Clock()
	return Payload{
		Text: days + " days " + clock + " left until New Year 2027",
		Blocks: []Block{
			Header(Title),
			Section(Intro),
			Fields("*Days*\n"+days, "*Time*\n"+clock),
			Context(TargetLine),
		},
	}
}
