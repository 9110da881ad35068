// Package capture coordinates frame acquisition, face detection and the
// periodic capture window that decides when detected faces are saved.
package capture

import (
	"image"

	"facecrop-go/internal/config"
)

// Presenter is the single channel through which the capture tasks update
// anything a user can see. Implementations must marshal onto their own UI
// thread; both methods are called from background goroutines.
type Presenter interface {
	// ShowFrame publishes one annotated frame. The frame is not touched
	// again by the caller after this returns.
	ShowFrame(frame image.Image)
	// ShowCount publishes the crop counter after an increment.
	ShowCount(n int)
}

// Detector finds face regions in a frame. Reset clears per-session state.
type Detector interface {
	Detect(frame image.Image) []image.Rectangle
	Reset()
}

// Journal records saved crops. Every method is best effort: failures are
// logged and never abort a capture.
type Journal interface {
	Begin(cfg config.Session) (sessionID string, err error)
	Crop(sessionID string, n int, path string, region image.Rectangle) error
	End(sessionID string, finalCount int) error
}

// NopPresenter discards every update.
type NopPresenter struct{}

func (NopPresenter) ShowFrame(image.Image) {}
func (NopPresenter) ShowCount(int)         {}
