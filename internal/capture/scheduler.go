package capture

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Scheduler arms the gate after an initial delay and then once per period.
// Each window is waited on until the acquisition loop disarms it, and the
// period is counted from that moment, so windows never overlap.
type Scheduler struct {
	gate         *Gate
	initialDelay time.Duration
	period       time.Duration

	// after returns a channel that fires once d has elapsed. Tests replace
	// it with a fake clock.
	after func(d time.Duration) <-chan time.Time

	windows atomic.Uint64
}

// NewScheduler returns a scheduler driven by the wall clock.
func NewScheduler(gate *Gate, initialDelay, period time.Duration) *Scheduler {
	return &Scheduler{
		gate:         gate,
		initialDelay: initialDelay,
		period:       period,
		after:        time.After,
	}
}

// Run arms windows until ctx is cancelled. Cancellation, including while a
// window is still open, is a normal stop and is not reported as an error.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("[Scheduler] Started (initial delay %v, period %v)", s.initialDelay, s.period)
	defer log.Printf("[Scheduler] Stopped after %d windows", s.windows.Load())

	if !s.sleep(ctx, s.initialDelay) {
		return
	}

	for {
		if s.gate.Arm() {
			n := s.windows.Add(1)
			log.Printf("[Scheduler] Capture window #%d armed", n)
		} else {
			log.Printf("[Scheduler] WARNING: gate already armed, waiting for it to clear")
		}

		if err := s.gate.WaitIdle(ctx); err != nil {
			return
		}

		if !s.sleep(ctx, s.period) {
			return
		}
	}
}

// Windows returns how many capture windows have been armed.
func (s *Scheduler) Windows() uint64 {
	return s.windows.Load()
}

// sleep waits for d and reports false if ctx ended first.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-s.after(d):
		return ctx.Err() == nil
	case <-ctx.Done():
		return false
	}
}
