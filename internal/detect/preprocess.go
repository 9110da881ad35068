package detect

import (
	"fmt"
	"image"
	"image/draw"
	"runtime"

	"gocv.io/x/gocv"
)

// Prepare converts frame to an equalized 8-bit intensity image with a zero
// origin, the input every Classifier expects.
func Prepare(frame image.Image) (*image.Gray, error) {
	src, err := rgbaMat(frame)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	if src.Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0)), nil
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorRGBAToGray)

	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(gray, &equalized)

	return grayImage(equalized), nil
}

// Grayscale converts img to an 8-bit intensity image with a zero origin
// using OpenCV's BT.601 weights.
func Grayscale(img image.Image) (*image.Gray, error) {
	src, err := rgbaMat(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	if src.Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0)), nil
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorRGBAToGray)
	return grayImage(gray), nil
}

// EqualizeHist spreads the intensity histogram of gray over the full 0-255
// range. An image of a single intensity comes back unchanged.
func EqualizeHist(gray *image.Gray) (*image.Gray, error) {
	if gray.Rect.Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0)), nil
	}
	src, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("gray image to mat: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.EqualizeHist(src, &dst)
	return grayImage(dst), nil
}

// rgbaMat copies img into a 4-channel Mat. Sub-images and other color
// models are redrawn onto a tightly packed zero-origin RGBA first.
func rgbaMat(img image.Image) (gocv.Mat, error) {
	b := img.Bounds()
	if b.Empty() {
		return gocv.NewMat(), nil
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	}

	// The Mat from NewMatFromBytes is a view on Go memory; clone it so the
	// result owns its pixels.
	view, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, rgba.Pix[:4*b.Dx()*b.Dy()])
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("frame to mat: %w", err)
	}
	m := view.Clone()
	view.Close()
	runtime.KeepAlive(rgba)
	return m, nil
}

// grayImage copies a single-channel 8-bit Mat out into Go memory.
func grayImage(m gocv.Mat) *image.Gray {
	w, h := m.Cols(), m.Rows()
	return &image.Gray{
		Pix:    m.ToBytes(),
		Stride: w,
		Rect:   image.Rect(0, 0, w, h),
	}
}
