package detect

import (
	"fmt"
	"image"
	"log"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// cascadeScaleImage is OpenCV's CASCADE_SCALE_IMAGE flag.
const cascadeScaleImage = 2

// CascadeClassifier runs an OpenCV Haar or LBP cascade.
type CascadeClassifier struct {
	mu     sync.Mutex
	cc     gocv.CascadeClassifier
	loaded bool
	path   string
}

// LoadCascade loads a cascade XML file.
func LoadCascade(path string) (*CascadeClassifier, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierLoad, err)
	}

	cc := gocv.NewCascadeClassifier()
	if !cc.Load(path) {
		cc.Close()
		return nil, fmt.Errorf("%w: %s is not a cascade file", ErrClassifierLoad, path)
	}
	log.Printf("[Detect] Loaded cascade %s", path)
	return &CascadeClassifier{cc: cc, loaded: true, path: path}, nil
}

func (c *CascadeClassifier) Detect(gray *image.Gray, p Params) []image.Rectangle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return nil
	}

	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		log.Printf("[Detect] WARNING: failed to convert frame: %v", err)
		return nil
	}
	defer mat.Close()

	return c.cc.DetectMultiScaleWithParams(mat, p.ScaleFactor, p.MinNeighbors, cascadeScaleImage,
		image.Pt(p.MinSize, p.MinSize), image.Pt(p.MaxSize, p.MaxSize))
}

func (c *CascadeClassifier) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

func (c *CascadeClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return nil
	}
	c.loaded = false
	return c.cc.Close()
}
