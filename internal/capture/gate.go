package capture

import (
	"context"
	"sync"
)

// Gate is the capture window shared by the scheduler and the acquisition loop.
//
// The scheduler is the only caller of Arm; the acquisition loop observes the
// window with IsArmed, finishes its whole crop batch and only then calls
// Disarm. Keeping observation and release separate is what guarantees at
// most one batch per armed window: the scheduler cannot re-arm until the
// batch that saw the window has completed.
type Gate struct {
	mu    sync.Mutex
	armed bool
	idle  chan struct{} // closed while the gate is idle
}

// NewGate returns an idle gate.
func NewGate() *Gate {
	idle := make(chan struct{})
	close(idle)
	return &Gate{idle: idle}
}

// Arm opens a capture window. It returns false, and changes nothing, if a
// window is already open.
func (g *Gate) Arm() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.armed {
		return false
	}
	g.armed = true
	g.idle = make(chan struct{})
	return true
}

// IsArmed reports whether a window is open. It does not consume the window.
func (g *Gate) IsArmed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.armed
}

// Disarm closes the window and wakes every WaitIdle caller.
// It returns false if the gate was already idle.
func (g *Gate) Disarm() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.armed {
		return false
	}
	g.armed = false
	close(g.idle)
	return true
}

// WaitIdle blocks until the gate is idle or ctx is done.
func (g *Gate) WaitIdle(ctx context.Context) error {
	g.mu.Lock()
	idle := g.idle
	g.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
