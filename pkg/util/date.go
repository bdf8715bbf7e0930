package util

import "time"

// AlignToInterval truncates t to the containing bar-interval boundary.
// Vendor feeds occasionally emit off-boundary timestamps; aligning keeps
// timestamp-keyed dedupe meaningful.
func AlignToInterval(t time.Time, interval time.Duration) time.Time {
	if interval <= 0 {
		return t
	}
	return t.Truncate(interval)
}

// SessionLength parses HH:MM open/close clocks into a session duration.
// Returns (0, false) when either clock is malformed or close is not after
// open.
func SessionLength(open, close string) (time.Duration, bool) {
	o, err := time.Parse("15:04", open)
	if err != nil {
		return 0, false
	}
	c, err := time.Parse("15:04", close)
	if err != nil {
		return 0, false
	}
	if !c.After(o) {
		return 0, false
	}
	return c.Sub(o), true
}
