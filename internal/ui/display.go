package ui

import (
	"fmt"
	"image"
	"image/color"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"facecrop-go/internal/camera"
)

// Display shows the annotated camera feed and the photo counter.
// ShowFrame and ShowCount may be called from any goroutine; widget updates
// are marshalled onto the fyne thread with fyne.Do.
type Display struct {
	image      *canvas.Image
	countLabel *widget.Label
	content    *fyne.Container

	buffer   *camera.FrameBuffer
	lastRead uint64 // fyne thread only
	pending  atomic.Bool
	gen      atomic.Uint64 // bumped by Clear; older queued paints are dropped
	count    atomic.Int64
	shown    atomic.Uint64
}

// NewDisplay returns a display with a dark placeholder of the given size.
func NewDisplay(width, height int) *Display {
	d := &Display{buffer: camera.NewFrameBuffer()}

	d.image = canvas.NewImageFromImage(placeholder(width, height, color.RGBA{25, 25, 25, 255}))
	d.image.FillMode = canvas.ImageFillContain
	d.image.SetMinSize(fyne.NewSize(float32(width), float32(height)))

	d.countLabel = widget.NewLabel(countText(0))
	d.countLabel.Alignment = fyne.TextAlignCenter

	d.content = container.NewBorder(nil, d.countLabel, nil, nil, d.image)
	return d
}

// Content returns the canvas object to place in a window.
func (d *Display) Content() fyne.CanvasObject {
	return d.content
}

// ShowFrame publishes frame. Frames arriving faster than the UI can paint
// replace each other in the buffer; at most one repaint is queued.
func (d *Display) ShowFrame(frame image.Image) {
	if frame == nil {
		return
	}
	d.buffer.Write(frame)
	if d.pending.CompareAndSwap(false, true) {
		gen := d.gen.Load()
		fyne.Do(func() { d.paint(gen) })
	}
}

func (d *Display) paint(gen uint64) {
	if gen != d.gen.Load() {
		return
	}
	d.pending.Store(false)
	frame, seq, ok := d.buffer.ReadIfNew(d.lastRead)
	if !ok {
		return
	}
	d.lastRead = seq
	d.image.Image = frame
	d.image.Refresh()
	d.shown.Add(1)
}

// ShowCount updates the counter label.
func (d *Display) ShowCount(n int) {
	d.count.Store(int64(n))
	fyne.Do(func() {
		d.countLabel.SetText(countText(int(d.count.Load())))
	})
}

// Count returns the last value passed to ShowCount.
func (d *Display) Count() int {
	return int(d.count.Load())
}

// Stats reports frames received, frames painted and frames dropped.
func (d *Display) Stats() (received, shown, dropped uint64) {
	return d.buffer.FrameCount(), d.shown.Load(), d.buffer.DroppedCount()
}

// Clear resets the feed to the placeholder, e.g. after a session stops.
// Repaints queued before Clear are discarded. Must run on the fyne thread.
func (d *Display) Clear() {
	d.gen.Add(1)
	d.pending.Store(false)
	d.buffer.Reset()
	d.lastRead = 0
	b := d.image.Image.Bounds()
	d.image.Image = placeholder(b.Dx(), b.Dy(), color.RGBA{25, 25, 25, 255})
	d.image.Refresh()
}

func countText(n int) string {
	return fmt.Sprintf("Next photo number: %d", n)
}

func placeholder(width, height int, c color.RGBA) image.Image {
	if width <= 0 || height <= 0 {
		width, height = 640, 480
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	stride := img.Stride
	for x := 0; x < width; x++ {
		off := x * 4
		img.Pix[off+0] = c.R
		img.Pix[off+1] = c.G
		img.Pix[off+2] = c.B
		img.Pix[off+3] = c.A
	}
	first := img.Pix[:stride]
	for y := 1; y < height; y++ {
		copy(img.Pix[y*stride:(y+1)*stride], first)
	}
	return img
}
