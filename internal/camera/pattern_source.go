package camera

import (
	"image"
	"image/color"
	"sync"
	"time"
)

// PatternSource is a synthetic camera that draws a moving test scene.
// It lets the UI and the headless mode run on machines without a webcam.
type PatternSource struct {
	mu     sync.Mutex
	open   bool
	width  int
	height int
	frame  int
	start  time.Time
}

// NewPatternSource returns a closed pattern source of the given size.
func NewPatternSource(width, height int) *PatternSource {
	if width <= 0 || height <= 0 {
		width, height = 640, 480
	}
	return &PatternSource{width: width, height: height}
}

// Open always succeeds; the index is ignored.
func (s *PatternSource) Open(int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.frame = 0
	s.start = time.Now()
	return nil
}

func (s *PatternSource) IsOpened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Read renders the next frame: a sky-to-ground gradient with a bright
// square sweeping left to right once every few seconds.
func (s *PatternSource) Read() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil, ErrSourceClosed
	}
	s.frame++

	w, h := s.width, s.height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		gradient := float64(y) / float64(h)
		c := color.RGBA{
			R: uint8(135 * (1 - gradient)),
			G: uint8(206*(1-gradient) + 60*gradient),
			B: uint8(250 * (1 - gradient)),
			A: 255,
		}
		off := y * img.Stride
		for x := 0; x < w; x++ {
			img.Pix[off+x*4+0] = c.R
			img.Pix[off+x*4+1] = c.G
			img.Pix[off+x*4+2] = c.B
			img.Pix[off+x*4+3] = 255
		}
	}

	side := h / 4
	elapsed := time.Since(s.start).Seconds()
	x0 := 0
	if w > side {
		x0 = int(elapsed*float64(w)/4) % (w - side)
	}
	y0 := (h - side) / 2
	for y := y0; y < y0+side; y++ {
		for x := x0; x < x0+side; x++ {
			off := y*img.Stride + x*4
			img.Pix[off+0], img.Pix[off+1], img.Pix[off+2] = 240, 220, 200
		}
	}
	return img, nil
}

func (s *PatternSource) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}
