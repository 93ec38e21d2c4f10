// Package utils holds test support shared across the runtime's packages.
package utils

import (
	"runtime"
	"testing"
	"time"
)

// GoroutineLeakDetector fails a test when goroutines outlive the session
// lifecycle under test. Record the baseline with Start before creating the
// session and call Check after Close.
type GoroutineLeakDetector struct {
	t              *testing.T
	initialCount   int
	allowedGrowth  int
	stabilizeDelay time.Duration
}

// NewGoroutineLeakDetector creates a detector with no allowed growth.
func NewGoroutineLeakDetector(t *testing.T) *GoroutineLeakDetector {
	return &GoroutineLeakDetector{
		t:              t,
		stabilizeDelay: 200 * time.Millisecond,
	}
}

// SetAllowedGrowth permits n goroutines to remain after Check.
func (d *GoroutineLeakDetector) SetAllowedGrowth(n int) *GoroutineLeakDetector {
	d.allowedGrowth = n
	return d
}

// Start records the baseline goroutine count.
func (d *GoroutineLeakDetector) Start() {
	time.Sleep(d.stabilizeDelay)
	d.initialCount = runtime.NumGoroutine()
}

// Check verifies the goroutine count settled back to the baseline.
func (d *GoroutineLeakDetector) Check() {
	d.t.Helper()

	// Sample a few times; shutdown goroutines may still be draining.
	final := runtime.NumGoroutine()
	for i := 0; i < 3; i++ {
		time.Sleep(d.stabilizeDelay / 2)
		if n := runtime.NumGoroutine(); n < final {
			final = n
		}
	}

	leaked := final - d.initialCount
	if leaked > d.allowedGrowth {
		buf := make([]byte, 1<<20)
		n := runtime.Stack(buf, true)
		d.t.Errorf("goroutine leak: started with %d, ended with %d (allowed growth %d)\n%s",
			d.initialCount, final, d.allowedGrowth, buf[:n])
	}
}
