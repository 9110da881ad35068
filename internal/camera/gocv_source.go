package camera

import (
	"fmt"
	"image"
	"log"
	"sync"

	"gocv.io/x/gocv"
)

// GocvSource reads frames through OpenCV's VideoCapture.
type GocvSource struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	mat     gocv.Mat
	width   int
	height  int
}

// NewGocvSource returns a closed source that requests width x height on Open.
func NewGocvSource(width, height int) *GocvSource {
	return &GocvSource{width: width, height: height}
}

// Open opens the OpenCV device index.
func (s *GocvSource) Open(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return fmt.Errorf("open video capture %d: %w", index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("video capture %d did not open", index)
	}

	if s.width > 0 && s.height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(s.width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(s.height))
	}

	s.capture = vc
	s.mat = gocv.NewMat()
	log.Printf("[Camera] gocv device %d opened (%.0fx%.0f)", index,
		vc.Get(gocv.VideoCaptureFrameWidth), vc.Get(gocv.VideoCaptureFrameHeight))
	return nil
}

// IsOpened reports whether the device is open.
func (s *GocvSource) IsOpened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capture != nil && s.capture.IsOpened()
}

// Read grabs one frame and converts it to an *image.RGBA.
func (s *GocvSource) Read() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil, ErrSourceClosed
	}
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, fmt.Errorf("%w: device returned an empty frame", ErrReadFailed)
	}

	img, err := s.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: convert frame: %v", ErrReadFailed, err)
	}
	return img, nil
}

// Release closes the device. Calling it on a closed source is a no-op.
func (s *GocvSource) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.mat.Close()
	s.capture = nil
	log.Println("[Camera] gocv device released")
	return err
}
