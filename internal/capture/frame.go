package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
)

// outlineColor and outlineWidth describe the box drawn around each face.
var outlineColor = color.RGBA{0, 255, 0, 255}

const outlineWidth = 3

// toRGBA returns img as an *image.RGBA with a zero origin, copying only when
// the source is a different type.
func toRGBA(img image.Image) *image.RGBA {
	if img == nil {
		return nil
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return rgba
}

// Mirror flips frame horizontally in place.
func Mirror(frame *image.RGBA) {
	w := frame.Rect.Dx()
	h := frame.Rect.Dy()
	for y := 0; y < h; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+w*4]
		for l, r := 0, (w-1)*4; l < r; l, r = l+4, r-4 {
			row[l], row[r] = row[r], row[l]
			row[l+1], row[r+1] = row[r+1], row[l+1]
			row[l+2], row[r+2] = row[r+2], row[l+2]
			row[l+3], row[r+3] = row[r+3], row[l+3]
		}
	}
}

// DrawOutline draws a rectangle border of the given thickness inside r.
func DrawOutline(frame *image.RGBA, r image.Rectangle, c color.Color, thickness int) {
	r = r.Intersect(frame.Rect)
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), // top
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), // left
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), // right
	}
	for _, e := range edges {
		draw.Draw(frame, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}

// WriteCrop encodes the region r of frame to path as JPEG or PNG.
func WriteCrop(path string, frame *image.RGBA, r image.Rectangle, format string) error {
	r = r.Intersect(frame.Rect)
	if r.Empty() {
		return fmt.Errorf("crop %v lies outside the frame", r)
	}
	sub := frame.SubImage(r)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create crop file: %w", err)
	}

	switch format {
	case "png":
		err = png.Encode(f, sub)
	default:
		err = jpeg.Encode(f, sub, &jpeg.Options{Quality: 95})
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode crop %s: %w", path, err)
	}
	return f.Close()
}
