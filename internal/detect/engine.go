// Package detect finds face rectangles in camera frames.
//
// An Engine owns one Classifier at a time and prepares every frame for it:
// intensity conversion, histogram equalization and a minimum face size
// derived from the first frame of each session.
package detect

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"strings"
	"sync"
)

// Errors
var (
	ErrUnknownClassifier = errors.New("unknown classifier")
	ErrClassifierLoad    = errors.New("failed to load classifier")
)

// Classifier kinds accepted by Open.
const (
	KindHaar = "haar"
	KindLBP  = "lbp"
	KindPigo = "pigo"
)

// minFaceRatio is the minimum face height as a fraction of the frame height.
const minFaceRatio = 0.2

// Params are the search parameters handed to a Classifier.
type Params struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int // 0 means no lower bound
	MaxSize      int
}

// DefaultParams returns the fixed search parameters.
func DefaultParams() Params {
	return Params{
		ScaleFactor:  1.05,
		MinNeighbors: 7,
		MaxSize:      224,
	}
}

// Classifier is a loaded face model.
type Classifier interface {
	Detect(gray *image.Gray, p Params) []image.Rectangle
	Loaded() bool
	Close() error
}

// Open loads the classifier of the given kind from path.
func Open(kind, path string) (Classifier, error) {
	switch strings.ToLower(kind) {
	case KindHaar, KindLBP:
		return LoadCascade(path)
	case KindPigo:
		return LoadPigo(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownClassifier, kind)
	}
}

// Engine runs the configured classifier over frames.
type Engine struct {
	mu          sync.Mutex
	classifier  Classifier
	params      Params
	minFaceSize int
}

// NewEngine returns an engine using c, which may be nil until a
// classifier is chosen.
func NewEngine(c Classifier) *Engine {
	return &Engine{classifier: c, params: DefaultParams()}
}

// SetClassifier swaps the classifier, closing the previous one.
func (e *Engine) SetClassifier(c Classifier) {
	e.mu.Lock()
	old := e.classifier
	e.classifier = c
	e.mu.Unlock()

	if old != nil && old != c {
		if err := old.Close(); err != nil {
			log.Printf("[Detect] WARNING: failed to close previous classifier: %v", err)
		}
	}
}

// Loaded reports whether a usable classifier is configured.
func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.classifier != nil && e.classifier.Loaded()
}

// Detect returns the face rectangles in frame, in the classifier's order.
// It returns an empty slice when nothing is found or no classifier is loaded.
func (e *Engine) Detect(frame image.Image) []image.Rectangle {
	gray, err := Prepare(frame)
	if err != nil {
		log.Printf("[Detect] WARNING: frame skipped: %v", err)
		return []image.Rectangle{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.minFaceSize == 0 {
		if size := int(math.Round(float64(gray.Rect.Dy()) * minFaceRatio)); size > 0 {
			e.minFaceSize = size
			log.Printf("[Detect] Minimum face size set to %dpx", size)
		}
	}

	if e.classifier == nil || !e.classifier.Loaded() {
		return []image.Rectangle{}
	}

	p := e.params
	p.MinSize = e.minFaceSize
	faces := e.classifier.Detect(gray, p)
	if faces == nil {
		return []image.Rectangle{}
	}
	return faces
}

// Reset forgets the minimum face size so the next frame sets it again.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.minFaceSize = 0
}

// MinFaceSize returns the held minimum face size, 0 before the first frame.
func (e *Engine) MinFaceSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.minFaceSize
}

// Close releases the classifier.
func (e *Engine) Close() error {
	e.mu.Lock()
	c := e.classifier
	e.classifier = nil
	e.mu.Unlock()

	if c == nil {
		return nil
	}
	return c.Close()
}
