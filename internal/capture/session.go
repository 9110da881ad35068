package capture

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"facecrop-go/internal/camera"
	"facecrop-go/internal/config"
)

// Errors
var (
	ErrSourceUnavailable = errors.New("failed to open the camera connection")
	ErrSessionActive     = errors.New("capture session already active")
	ErrPreviousRunning   = errors.New("previous capture session is still winding down")
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "ACTIVE"
	}
	return "IDLE"
}

// Stop bounds for the in-flight work of each task.
const (
	DefaultLoopStopTimeout      = 33 * time.Millisecond
	DefaultSchedulerStopTimeout = 1 * time.Second
	DefaultRestartTimeout       = 2 * time.Second
)

// Options tunes a Session. The zero value gives production behaviour.
type Options struct {
	Journal              Journal
	FrameInterval        time.Duration
	LoopStopTimeout      time.Duration
	SchedulerStopTimeout time.Duration
	// RestartTimeout bounds how long Start waits for tasks of the previous
	// session that outlived Stop.
	RestartTimeout time.Duration

	// After replaces time.After in the scheduler (fake clocks in tests).
	After func(d time.Duration) <-chan time.Time
}

// Stats is a snapshot of the running (or last) session.
type Stats struct {
	State       State
	Frames      uint64
	Crops       uint64
	FailedTicks uint64
	Windows     uint64
	Count       int
	LastFrameAt time.Time
}

// Session owns the video source and both periodic tasks between Start and Stop.
type Session struct {
	source    camera.Source
	detector  Detector
	presenter Presenter
	gate      *Gate
	opts      Options

	mu        sync.Mutex
	state     State
	cfg       config.Session
	counter   *Counter
	journalID string
	cancel    context.CancelFunc
	loop      *AcquisitionLoop
	scheduler *Scheduler
	loopDone  chan struct{}
	schedDone chan struct{}
	stopped   chan struct{}
}

// NewSession wires a session around its collaborators. The detector's
// classifier must be configured before Start.
func NewSession(source camera.Source, detector Detector, presenter Presenter, opts Options) *Session {
	if presenter == nil {
		presenter = NopPresenter{}
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = FrameInterval
	}
	if opts.LoopStopTimeout <= 0 {
		opts.LoopStopTimeout = DefaultLoopStopTimeout
	}
	if opts.SchedulerStopTimeout <= 0 {
		opts.SchedulerStopTimeout = DefaultSchedulerStopTimeout
	}
	if opts.RestartTimeout <= 0 {
		opts.RestartTimeout = DefaultRestartTimeout
	}
	return &Session{
		source:    source,
		detector:  detector,
		presenter: presenter,
		gate:      NewGate(),
		opts:      opts,
	}
}

// Start opens the source and launches the acquisition loop and the capture
// scheduler. cfg is expected to have passed cfg.Validate already.
func (s *Session) Start(cfg config.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateActive {
		return ErrSessionActive
	}

	// A tick or window left over from the last session must not see the
	// new source or write into the new session's numbering.
	if !waitDone(s.loopDone, s.opts.RestartTimeout, "previous acquisition loop") ||
		!waitDone(s.schedDone, s.opts.RestartTimeout, "previous capture scheduler") {
		return ErrPreviousRunning
	}

	if err := s.source.Open(cfg.DeviceIndex); err != nil {
		s.releaseSource()
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if !s.source.IsOpened() {
		s.releaseSource()
		return ErrSourceUnavailable
	}

	s.cfg = cfg
	s.counter = NewCounter(cfg.StartCount)
	s.detector.Reset()
	s.gate = NewGate()

	s.journalID = ""
	if s.opts.Journal != nil {
		id, err := s.opts.Journal.Begin(cfg)
		if err != nil {
			log.Printf("[Session] WARNING: journal unavailable for this session: %v", err)
		}
		s.journalID = id
	}

	s.loop = &AcquisitionLoop{
		source:    s.source,
		detector:  s.detector,
		gate:      s.gate,
		counter:   s.counter,
		presenter: s.presenter,
		journal:   s.opts.Journal,
		journalID: s.journalID,
		cfg:       cfg,
		interval:  s.opts.FrameInterval,
	}
	s.scheduler = NewScheduler(s.gate, cfg.InitialDelay, cfg.Period)
	if s.opts.After != nil {
		s.scheduler.after = s.opts.After
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.loopDone = make(chan struct{})
	s.schedDone = make(chan struct{})
	s.stopped = make(chan struct{})

	go func(loop *AcquisitionLoop, done chan struct{}) {
		defer close(done)
		loop.Run(ctx)
	}(s.loop, s.loopDone)

	go func(sched *Scheduler, done chan struct{}) {
		defer close(done)
		sched.Run(ctx)
	}(s.scheduler, s.schedDone)

	s.state = StateActive
	s.presenter.ShowCount(cfg.StartCount)
	log.Printf("[Session] Started: device=%d delay=%v period=%v start=%d out=%s",
		cfg.DeviceIndex, cfg.InitialDelay, cfg.Period, cfg.StartCount, cfg.CropPath(cfg.StartCount))
	return nil
}

// Stop cancels both tasks, waits a bounded time for each, disarms the gate
// and releases the source. It returns the final crop counter. Stop is
// idempotent and safe to call before Start.
func (s *Session) Stop() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		s.releaseSource()
		return s.countLocked()
	}

	s.cancel()
	waitDone(s.loopDone, s.opts.LoopStopTimeout, "acquisition loop")
	waitDone(s.schedDone, s.opts.SchedulerStopTimeout, "capture scheduler")

	// A window left armed would starve the next session's scheduler.
	s.gate.Disarm()
	s.releaseSource()

	final := s.counter.Value()
	if s.opts.Journal != nil && s.journalID != "" {
		if err := s.opts.Journal.End(s.journalID, final); err != nil {
			log.Printf("[Session] WARNING: failed to close journal session: %v", err)
		}
	}

	s.state = StateIdle
	close(s.stopped)
	log.Printf("[Session] Stopped: %d crops saved, next photo count %d", s.loop.crops.Load(), final)
	return final
}

// Active reports whether a session is running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateActive
}

// Done returns a channel closed when the current session stops. Before the
// first Start it is already closed.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return s.stopped
}

// Count returns the crop counter of the current or last session.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked()
}

// Gate exposes the capture window of the current or last session, mainly
// for tests and diagnostics. Every Start gets a fresh gate.
func (s *Session) Gate() *Gate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate
}

// Stats returns a snapshot for health logging.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{State: s.state, Count: s.countLocked()}
	if s.loop != nil {
		st.Frames = s.loop.frames.Load()
		st.Crops = s.loop.crops.Load()
		st.FailedTicks = s.loop.failedTicks.Load()
		if ns := s.loop.lastFrameAt.Load(); ns > 0 {
			st.LastFrameAt = time.Unix(0, ns)
		}
	}
	if s.scheduler != nil {
		st.Windows = s.scheduler.Windows()
	}
	return st
}

func (s *Session) countLocked() int {
	if s.counter == nil {
		return s.cfg.StartCount
	}
	return s.counter.Value()
}

// releaseSource releases the source whether or not it still reports open:
// a source whose device died mid-session still holds resources.
func (s *Session) releaseSource() {
	if err := s.source.Release(); err != nil {
		log.Printf("[Session] WARNING: failed to release camera: %v", err)
	}
}

// waitDone waits up to timeout for done and reports whether it closed.
// A nil channel counts as done.
func waitDone(done <-chan struct{}, timeout time.Duration, name string) bool {
	if done == nil {
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		log.Printf("[Session] WARNING: %s did not finish within %v", name, timeout)
		return false
	}
}
