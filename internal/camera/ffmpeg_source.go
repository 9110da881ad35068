package camera

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"facecrop-go/internal/helpers"
)

const (
	// Per-frame wait in Read. At 30 FPS a frame arrives every ~33ms.
	ffmpegFrameTimeout = 150 * time.Millisecond
	// How long Open waits for the first frame before trying the next format.
	ffmpegStartTimeout = 3 * time.Second
	ffmpegCaptureFPS   = 30
	maxMJPEGFrameBytes = 4 << 20
)

// FFmpegSource captures a V4L2 device through an FFmpeg child process
// emitting MJPEG on stdout. A reader goroutine keeps only the newest frame,
// so a slow consumer never makes FFmpeg's pipe back up.
type FFmpegSource struct {
	opts SourceOptions

	mu     sync.Mutex
	cmd    *exec.Cmd
	frames chan []byte
	done   chan struct{}

	frameCount atomic.Uint64
	dropCount  atomic.Uint64
}

// NewFFmpegSource returns a closed source.
func NewFFmpegSource(opts SourceOptions) *FFmpegSource {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 640, 480
	}
	if opts.Format == "" {
		opts.Format = "mjpeg"
	}
	return &FFmpegSource{opts: opts}
}

// ffmpegArgs builds the argument lists to try in order: the configured
// input format, the other format, then FFmpeg's own detection.
func ffmpegArgs(devicePath string, width, height, fps int, format string) [][]string {
	videoSize := fmt.Sprintf("%dx%d", width, height)
	framerate := fmt.Sprintf("%d", fps)

	input := func(inputFormat string) []string {
		args := []string{"-hide_banner", "-loglevel", "error",
			"-thread_queue_size", "512", "-probesize", "32", "-analyzeduration", "0",
			"-f", "v4l2"}
		if inputFormat != "" {
			args = append(args, "-input_format", inputFormat)
		}
		args = append(args, "-video_size", videoSize, "-framerate", framerate, "-i", devicePath)
		return append(args, "-f", "image2pipe", "-vcodec", "mjpeg", "-q:v", "5", "-")
	}

	if format == "yuyv" {
		return [][]string{input("yuyv422"), input("mjpeg"), input("")}
	}
	return [][]string{input("mjpeg"), input("yuyv422"), input("")}
}

// Open starts FFmpeg on /dev/video<index>, falling back through input
// formats until one produces a frame.
func (s *FFmpegSource) Open(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		select {
		case <-s.done:
			// FFmpeg exited on its own; reap it and start over.
			s.releaseLocked()
		default:
			return nil
		}
	}

	devicePath := DevicePath(index)
	helpers.KillDeviceHolders(devicePath, s.opts.KillDeviceHolders)

	var lastErr error
	for _, args := range ffmpegArgs(devicePath, s.opts.Width, s.opts.Height, ffmpegCaptureFPS, s.opts.Format) {
		if err := s.start(args); err != nil {
			lastErr = err
			log.Printf("[Camera] %s: %v", devicePath, err)
			continue
		}
		log.Printf("[Camera] %s: FFmpeg streaming %dx%d (PID: %d)",
			devicePath, s.opts.Width, s.opts.Height, s.cmd.Process.Pid)
		return nil
	}
	return fmt.Errorf("no usable FFmpeg input format for %s: %w", devicePath, lastErr)
}

// start launches one FFmpeg attempt and waits for its first frame.
// Must be called with mu held.
func (s *FFmpegSource) start(args []string) error {
	cmd := exec.Command("ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start FFmpeg: %w", err)
	}

	frames := make(chan []byte, 1)
	done := make(chan struct{})
	go s.readStream(stdout, frames, done)

	select {
	case data := <-frames:
		// Put the first frame back unless a newer one already replaced it.
		select {
		case frames <- data:
		default:
		}
	case <-done:
		cmd.Wait()
		return fmt.Errorf("FFmpeg exited before the first frame (args %v)", args)
	case <-time.After(ffmpegStartTimeout):
		cmd.Process.Kill()
		<-done
		cmd.Wait()
		return fmt.Errorf("no frame within %v (args %v)", ffmpegStartTimeout, args)
	}

	s.cmd = cmd
	s.frames = frames
	s.done = done
	return nil
}

// readStream splits stdout into JPEG frames, keeping only the latest one.
func (s *FFmpegSource) readStream(stdout io.Reader, frames chan []byte, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMJPEGFrameBytes)
	scanner.Split(SplitMJPEG)

	for scanner.Scan() {
		data := bytes.Clone(scanner.Bytes())
		s.frameCount.Add(1)

		select {
		case frames <- data:
		default:
			// Replace the unread frame with the newer one.
			select {
			case <-frames:
				s.dropCount.Add(1)
			default:
			}
			select {
			case frames <- data:
			default:
			}
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("[Camera] FFmpeg stream error: %v", err)
	}
}

// IsOpened reports whether FFmpeg is running.
func (s *FFmpegSource) IsOpened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Read waits briefly for the newest frame and decodes it.
func (s *FFmpegSource) Read() (image.Image, error) {
	s.mu.Lock()
	frames, done := s.frames, s.done
	s.mu.Unlock()

	if frames == nil {
		return nil, ErrSourceClosed
	}

	timer := time.NewTimer(ffmpegFrameTimeout)
	defer timer.Stop()

	select {
	case data := <-frames:
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: decode MJPEG frame: %v", ErrReadFailed, err)
		}
		return img, nil
	case <-done:
		return nil, fmt.Errorf("%w: FFmpeg stream ended", ErrReadFailed)
	case <-timer.C:
		return nil, fmt.Errorf("%w: no frame within %v", ErrReadFailed, ffmpegFrameTimeout)
	}
}

// Release kills FFmpeg and reaps it.
func (s *FFmpegSource) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return nil
	}
	s.releaseLocked()
	return nil
}

func (s *FFmpegSource) releaseLocked() {
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	<-s.done
	s.cmd.Wait() // reap, or the child lingers as a zombie

	log.Printf("[Camera] FFmpeg released after %d frames (%d dropped)", s.frameCount.Load(), s.dropCount.Load())
	s.cmd = nil
	s.frames = nil
	s.done = nil
}
