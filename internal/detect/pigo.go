package detect

import (
	"fmt"
	"image"
	"log"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// pigo search settings that have no cascade equivalent.
const (
	pigoMinWindow   = 20
	pigoShiftFactor = 0.1
	pigoIoU         = 0.2
	pigoMinQuality  = 5.0
)

// PigoClassifier runs a pigo pixel-intensity cascade in pure Go.
type PigoClassifier struct {
	cascade *pigo.Pigo
}

// LoadPigo unpacks a pigo cascade file such as "facefinder".
func LoadPigo(path string) (*PigoClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierLoad, err)
	}
	cascade, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack %s: %v", ErrClassifierLoad, path, err)
	}
	log.Printf("[Detect] Loaded pigo cascade %s", path)
	return &PigoClassifier{cascade: cascade}, nil
}

// Detect maps the cascade parameters onto pigo's window sizes and keeps
// clustered detections above a quality floor.
func (c *PigoClassifier) Detect(gray *image.Gray, p Params) []image.Rectangle {
	if c.cascade == nil {
		return nil
	}
	w, h := gray.Rect.Dx(), gray.Rect.Dy()

	minSize := p.MinSize
	if minSize < pigoMinWindow {
		minSize = pigoMinWindow
	}
	maxSize := p.MaxSize
	if maxSize <= 0 || maxSize > min(w, h) {
		maxSize = min(w, h)
	}
	if minSize > maxSize {
		return nil
	}

	dets := c.cascade.RunCascade(pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     maxSize,
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: p.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: packedPixels(gray),
			Rows:   h,
			Cols:   w,
			Dim:    w,
		},
	}, 0.0)
	dets = c.cascade.ClusterDetections(dets, pigoIoU)

	var faces []image.Rectangle
	for _, d := range dets {
		if d.Q < pigoMinQuality {
			continue
		}
		half := d.Scale / 2
		r := image.Rect(d.Col-half, d.Row-half, d.Col+half, d.Row+half).Intersect(gray.Rect)
		if !r.Empty() {
			faces = append(faces, r)
		}
	}
	return faces
}

func (c *PigoClassifier) Loaded() bool { return c.cascade != nil }

func (c *PigoClassifier) Close() error {
	c.cascade = nil
	return nil
}

// packedPixels returns the pixels without row padding.
func packedPixels(gray *image.Gray) []uint8 {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	if gray.Stride == w {
		return gray.Pix[:w*h]
	}
	out := make([]uint8, 0, w*h)
	for y := 0; y < h; y++ {
		out = append(out, gray.Pix[y*gray.Stride:y*gray.Stride+w]...)
	}
	return out
}
