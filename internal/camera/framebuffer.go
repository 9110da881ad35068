package camera

import (
	"image"
	"sync"
	"time"
)

// FrameBuffer holds the latest frame for a consumer that reads at its own pace.
// The writer never blocks; frames overwritten before being read count as dropped.
type FrameBuffer struct {
	mu        sync.Mutex
	frame     image.Image
	seq       uint64
	readSeq   uint64
	dropped   uint64
	writtenAt time.Time
}

// NewFrameBuffer returns an empty buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Write stores frame as the latest one and returns its sequence number.
func (fb *FrameBuffer) Write(frame image.Image) uint64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.seq > fb.readSeq {
		fb.dropped++
	}
	fb.frame = frame
	fb.seq++
	fb.writtenAt = time.Now()
	return fb.seq
}

// ReadIfNew returns the latest frame if it is newer than lastRead.
func (fb *FrameBuffer) ReadIfNew(lastRead uint64) (image.Image, uint64, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.seq <= lastRead || fb.frame == nil {
		return nil, lastRead, false
	}
	fb.readSeq = fb.seq
	return fb.frame, fb.seq, true
}

// FrameCount returns how many frames have been written.
func (fb *FrameBuffer) FrameCount() uint64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.seq
}

// DroppedCount returns how many frames were replaced before anyone read them.
func (fb *FrameBuffer) DroppedCount() uint64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.dropped
}

// LastWrite returns when the latest frame was written.
func (fb *FrameBuffer) LastWrite() time.Time {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.writtenAt
}

// Reset clears the buffer and its counters.
func (fb *FrameBuffer) Reset() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.frame = nil
	fb.seq = 0
	fb.readSeq = 0
	fb.dropped = 0
	fb.writtenAt = time.Time{}
}
