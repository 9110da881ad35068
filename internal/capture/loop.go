package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"runtime/debug"
	"sync/atomic"
	"time"

	"facecrop-go/internal/camera"
	"facecrop-go/internal/config"
)

// FrameInterval is the acquisition period (~30 frames per second).
const FrameInterval = 33 * time.Millisecond

// ErrEmptyFrame is returned by Tick when the source produced no pixels.
var ErrEmptyFrame = errors.New("empty frame")

// AcquisitionLoop grabs, detects, crops (when the gate is armed), annotates
// and publishes one frame per tick.
type AcquisitionLoop struct {
	source    camera.Source
	detector  Detector
	gate      *Gate
	counter   *Counter
	presenter Presenter
	journal   Journal
	journalID string
	cfg       config.Session
	interval  time.Duration

	readFailures int // consecutive; only touched by the loop goroutine

	frames      atomic.Uint64
	crops       atomic.Uint64
	failedTicks atomic.Uint64
	lastFrameAt atomic.Int64
}

// Run ticks until ctx is cancelled. The first tick runs immediately.
// A failing tick is logged and never stops the loop.
func (l *AcquisitionLoop) Run(ctx context.Context) {
	interval := l.interval
	if interval <= 0 {
		interval = FrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[Loop] Acquisition started (every %v)", interval)
	defer log.Printf("[Loop] Acquisition stopped after %d frames, %d crops", l.frames.Load(), l.crops.Load())

	for {
		l.safeTick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// safeTick runs Tick, logging its error and recovering a panic so one bad
// frame cannot tear the loop down.
func (l *AcquisitionLoop) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			l.failedTicks.Add(1)
			log.Printf("[Loop] Exception during frame processing: %v\n%s", r, debug.Stack())
		}
	}()

	err := l.Tick(ctx)
	switch {
	case err == nil:
		l.readFailures = 0
	case errors.Is(err, camera.ErrReadFailed), errors.Is(err, ErrEmptyFrame):
		l.readFailures++
		if l.readFailures == 1 || l.readFailures%150 == 0 {
			log.Printf("[Loop] No frame from source (%d consecutive): %v", l.readFailures, err)
		}
	default:
		l.failedTicks.Add(1)
		log.Printf("[Loop] Tick abandoned: %v", err)
	}
}

// Tick processes exactly one frame. Cropping happens on the frame as
// detected, before any outline is drawn onto the same buffer.
func (l *AcquisitionLoop) Tick(ctx context.Context) error {
	img, err := l.source.Read()
	if err != nil {
		return err
	}
	frame := toRGBA(img)
	if frame == nil || frame.Rect.Empty() {
		return ErrEmptyFrame
	}
	l.frames.Add(1)
	l.lastFrameAt.Store(time.Now().UnixNano())

	Mirror(frame)

	faces := l.detector.Detect(frame)
	if len(faces) > 1 {
		config.Debugf("[Loop] %d faces in frame #%d", len(faces), l.frames.Load())
	}

	if l.gate.IsArmed() {
		if err := l.saveCrops(frame, faces); err != nil {
			// The gate stays armed: the next tick retries the batch.
			return err
		}
		l.gate.Disarm()
	}

	for _, r := range faces {
		DrawOutline(frame, r, outlineColor, outlineWidth)
	}

	if ctx.Err() != nil {
		return nil
	}
	l.presenter.ShowFrame(frame)
	return nil
}

// saveCrops writes one file per face, numbering them from the counter.
// The first failing write aborts the rest of the batch.
func (l *AcquisitionLoop) saveCrops(frame *image.RGBA, faces []image.Rectangle) error {
	for _, r := range faces {
		path := l.cfg.CropPath(l.counter.Value())
		if err := WriteCrop(path, frame, r, l.cfg.Format); err != nil {
			return fmt.Errorf("save crop: %w", err)
		}
		n := l.counter.Next()
		l.crops.Add(1)
		log.Printf("[Loop] Saved crop #%d -> %s", n, path)

		if l.journal != nil {
			if err := l.journal.Crop(l.journalID, n, path, r); err != nil {
				log.Printf("[Loop] WARNING: journal write failed for %s: %v", path, err)
			}
		}
		l.presenter.ShowCount(l.counter.Value())
	}
	return nil
}
