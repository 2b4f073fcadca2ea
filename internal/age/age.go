// Package age computes how long ago a task version was written.
package age

import "time"

// AgeData returns the time elapsed from since to now and whether since is
// set. Future timestamps clamp to zero.
func AgeData(since time.Time, now time.Time) (time.Duration, bool) {
	if since.IsZero() {
		return 0, false
	}
	if elapsed := now.Sub(since); elapsed > 0 {
		return elapsed, true
	}
	return 0, true
}

// FirstSeen returns the earliest non-zero time, or the zero time.
func FirstSeen(times ...time.Time) time.Time {
	var first time.Time
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		if first.IsZero() || t.Before(first) {
			first = t
		}
	}
	return first
}
