package domain

import "time"

// Retry delays for successive failed attempts. The attempt that has
// just failed selects the wait before the next try.
var backoffSchedule = []time.Duration{
	5 * time.Minute,
	30 * time.Minute,
	2 * time.Hour,
}

// NextBackoff returns the wait after retryCount failures. Counts past
// the end of the schedule reuse the last entry.
func NextBackoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	idx := retryCount - 1
	if idx >= len(backoffSchedule) {
		idx = len(backoffSchedule) - 1
	}
	return backoffSchedule[idx]
}
