package camera

import (
	"errors"
	"fmt"
	"image"
)

// Source is a video device the acquisition loop reads frames from.
//
// Read may be called from the acquisition goroutine while Release is called
// from another goroutine; implementations serialize the two.
type Source interface {
	// Open connects to the device with the given index.
	Open(index int) error
	IsOpened() bool
	// Read returns the next frame. Every call returns a new image the
	// caller may modify.
	Read() (image.Image, error)
	Release() error
}

// Errors
var (
	ErrReadFailed   = errors.New("frame read failed")
	ErrSourceClosed = fmt.Errorf("%w: source is not open", ErrReadFailed)
	ErrUnknownKind  = errors.New("unknown camera source")
)

// SourceOptions configures NewSource.
type SourceOptions struct {
	Kind              string // "gocv", "ffmpeg" or "pattern"
	Width             int
	Height            int
	Format            string // ffmpeg input format: "mjpeg" or "yuyv"
	KillDeviceHolders bool
}

// NewSource builds the Source named by opts.Kind.
func NewSource(opts SourceOptions) (Source, error) {
	switch opts.Kind {
	case "gocv", "":
		return NewGocvSource(opts.Width, opts.Height), nil
	case "ffmpeg":
		return NewFFmpegSource(opts), nil
	case "pattern":
		return NewPatternSource(opts.Width, opts.Height), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, opts.Kind)
	}
}
