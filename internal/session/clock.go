package session

import "time"

// MonotonicNow returns nanoseconds on Go's monotonic clock reading,
// suitable for the sliding-window arithmetic of §4.S.1: two calls'
// difference is immune to wall-clock adjustment as long as both
// retain the monotonic reading time.Since relies on.
var processStart = time.Now()

func MonotonicNow() int64 {
	return int64(time.Since(processStart))
}
