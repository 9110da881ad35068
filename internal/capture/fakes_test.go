package capture

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"facecrop-go/internal/camera"
	"facecrop-go/internal/config"
)

// fakeSource serves solid frames of a fixed size. Like the real sources,
// Open on an already open source is a no-op.
type fakeSource struct {
	mu       sync.Mutex
	width    int
	height   int
	fill     color.RGBA
	opened   bool
	died     bool
	openErr  error
	readErr  error
	block    chan struct{} // when set, Read waits for it to close
	reads    int
	releases int
}

func newFakeSource(w, h int) *fakeSource {
	return &fakeSource{width: w, height: h, fill: color.RGBA{0, 0, 200, 255}}
}

func (s *fakeSource) Open(int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.opened = true
	return nil
}

func (s *fakeSource) IsOpened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened && !s.died
}

// die makes the device vanish without the source being released.
func (s *fakeSource) die() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.died = true
}

func (s *fakeSource) Read() (image.Image, error) {
	s.mu.Lock()
	s.reads++
	block := s.block
	s.mu.Unlock()

	if block != nil {
		<-block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return nil, camera.ErrSourceClosed
	}
	if s.died {
		return nil, camera.ErrReadFailed
	}
	if s.readErr != nil {
		return nil, s.readErr
	}
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = s.fill.R, s.fill.G, s.fill.B, s.fill.A
	}
	return img, nil
}

func (s *fakeSource) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = false
	s.died = false
	s.releases++
	return nil
}

func (s *fakeSource) Releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases
}

func (s *fakeSource) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// fakeDetector returns a fixed list of faces.
type fakeDetector struct {
	mu      sync.Mutex
	faces   []image.Rectangle
	resets  int
	panicOn bool

	keepFrames bool
	seen       []*image.RGBA
}

func (d *fakeDetector) Detect(frame image.Image) []image.Rectangle {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.panicOn {
		panic("classifier exploded")
	}
	if rgba, ok := frame.(*image.RGBA); ok && d.keepFrames {
		cp := *rgba
		cp.Pix = append([]uint8(nil), rgba.Pix...)
		d.seen = append(d.seen, &cp)
	}
	return append([]image.Rectangle(nil), d.faces...)
}

func (d *fakeDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resets++
}

func (d *fakeDetector) setFaces(faces ...image.Rectangle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faces = faces
}

// recorder keeps every presenter update.
type recorder struct {
	mu     sync.Mutex
	frames []image.Image
	counts []int
}

func (r *recorder) ShowFrame(frame image.Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
}

func (r *recorder) ShowCount(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, n)
}

func (r *recorder) Counts() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.counts...)
}

func (r *recorder) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// fakeJournal records calls.
type fakeJournal struct {
	mu      sync.Mutex
	begins  int
	crops   []int
	ended   []int
	failing bool
}

func (j *fakeJournal) Begin(config.Session) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.begins++
	return "session-1", nil
}

func (j *fakeJournal) Crop(_ string, n int, _ string, _ image.Rectangle) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.failing {
		return errors.New("disk full")
	}
	j.crops = append(j.crops, n)
	return nil
}

func (j *fakeJournal) End(_ string, final int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ended = append(j.ended, final)
	return nil
}

// fakeClock hands every requested wait to the test, which decides when it
// elapses.
type fakeClock struct {
	reqs chan timerReq
}

type timerReq struct {
	d    time.Duration
	fire chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{reqs: make(chan timerReq, 4)}
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	fire := make(chan time.Time, 1)
	c.reqs <- timerReq{d: d, fire: fire}
	return fire
}

// next waits for the scheduler's next timer request.
func (c *fakeClock) next(t testing.TB) timerReq {
	t.Helper()
	select {
	case r := <-c.reqs:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler never asked for a timer")
		return timerReq{}
	}
}

// eventually polls cond until it holds or a second passes.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

func testSession(dir string) config.Session {
	return config.Session{
		InitialDelay: time.Second,
		Period:       2 * time.Second,
		StartCount:   0,
		OutputDir:    dir,
		BaseName:     "face",
		Format:       "png",
	}
}
