package camera

import (
	"image"
	"testing"
)

func TestFrameBufferReadIfNew(t *testing.T) {
	fb := NewFrameBuffer()
	if _, _, ok := fb.ReadIfNew(0); ok {
		t.Fatal("empty buffer returned a frame")
	}

	a := image.NewRGBA(image.Rect(0, 0, 1, 1))
	b := image.NewRGBA(image.Rect(0, 0, 2, 2))
	fb.Write(a)
	seq := fb.Write(b)

	got, gotSeq, ok := fb.ReadIfNew(0)
	if !ok || got != b || gotSeq != seq {
		t.Fatalf("ReadIfNew = %v, %d, %v; want newest frame", got.Bounds(), gotSeq, ok)
	}
	if _, _, ok := fb.ReadIfNew(gotSeq); ok {
		t.Fatal("same frame returned twice")
	}
	if fb.FrameCount() != 2 || fb.DroppedCount() != 1 {
		t.Fatalf("count=%d dropped=%d, want 2 and 1", fb.FrameCount(), fb.DroppedCount())
	}

	fb.Write(a)
	if fb.DroppedCount() != 1 {
		t.Fatal("a frame written after a read counted as dropped")
	}

	fb.Reset()
	if fb.FrameCount() != 0 || !fb.LastWrite().IsZero() {
		t.Fatal("Reset kept state")
	}
}
