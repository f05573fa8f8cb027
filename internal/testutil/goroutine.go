package testutil

import (
	"runtime"
	"testing"
	"time"
)

// AssertNoGoroutineLeaks checks that the goroutine count returns to within
// margin of baseline before the deadline. Capture workers and consumer ticks
// should all be joined by pipeline shutdown.
func AssertNoGoroutineLeaks(t *testing.T, baseline, margin int, deadline time.Duration) {
	t.Helper()
	limit := time.Now().Add(deadline)
	for time.Now().Before(limit) {
		if runtime.NumGoroutine() <= baseline+margin {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Errorf("goroutine leak: baseline=%d, current=%d, margin=%d",
		baseline, runtime.NumGoroutine(), margin)
}
