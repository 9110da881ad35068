package capture

import "sync/atomic"

// Counter numbers saved crops. It only moves forward during a session; a new
// session builds a new Counter from the user's starting photo count.
type Counter struct {
	n atomic.Int64
}

// NewCounter returns a counter whose next crop is numbered start.
func NewCounter(start int) *Counter {
	c := &Counter{}
	c.n.Store(int64(start))
	return c
}

// Next returns the number for the crop being written and advances the counter.
func (c *Counter) Next() int {
	return int(c.n.Add(1) - 1)
}

// Value returns the number the next crop will get.
func (c *Counter) Value() int {
	return int(c.n.Load())
}
