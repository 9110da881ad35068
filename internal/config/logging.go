package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// =============================================================================
// Rotating File Writer
// =============================================================================

// RotatingFileWriter is an io.Writer that rotates its file by size:
// once the file would exceed maxBytes it is shifted to .1, .1 to .2, and so on,
// keeping at most backupCount old files.
type RotatingFileWriter struct {
	mu          sync.Mutex
	path        string
	maxBytes    int64
	backupCount int
	file        *os.File
	size        int64
}

// NewRotatingFileWriter opens (or creates) path for appending.
// maxBytes <= 0 disables rotation.
func NewRotatingFileWriter(path string, maxBytes, backupCount int) (*RotatingFileWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("config: create log dir: %w", err)
		}
	}

	rw := &RotatingFileWriter{
		path:        path,
		maxBytes:    int64(maxBytes),
		backupCount: backupCount,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

func (rw *RotatingFileWriter) open() error {
	f, err := os.OpenFile(rw.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("config: open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("config: stat log file: %w", err)
	}
	rw.file = f
	rw.size = info.Size()
	return nil
}

// Write implements io.Writer.
func (rw *RotatingFileWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.maxBytes > 0 && rw.size+int64(len(p)) > rw.maxBytes {
		rw.rotate()
	}
	if rw.file == nil {
		return os.Stderr.Write(p)
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// Close closes the underlying file.
func (rw *RotatingFileWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.file == nil {
		return nil
	}
	err := rw.file.Close()
	rw.file = nil
	return err
}

// rotate shifts path -> path.1 -> path.2 ... and reopens a fresh file.
// Must be called with mu held.
func (rw *RotatingFileWriter) rotate() {
	if rw.file != nil {
		rw.file.Close()
		rw.file = nil
	}

	for i := rw.backupCount; i > 0; i-- {
		src := rw.path
		if i > 1 {
			src = fmt.Sprintf("%s.%d", rw.path, i-1)
		}
		dst := fmt.Sprintf("%s.%d", rw.path, i)
		os.Remove(dst)
		os.Rename(src, dst)
	}

	if err := rw.open(); err != nil {
		// Write falls back to stderr while the file is unavailable.
		fmt.Fprintf(os.Stderr, "config: failed to reopen log file after rotation: %v\n", err)
	}
}

// =============================================================================
// ConfigureLogging
// =============================================================================

var debugEnabled atomic.Bool

// Debugf logs only when the configured level is DEBUG. Used for per-tick
// messages that would otherwise flood the log at 30 Hz.
func Debugf(format string, args ...any) {
	if debugEnabled.Load() {
		log.Printf(format, args...)
	}
}

// ConfigureLogging points the standard log package at a rotating file
// and/or stdout according to cfg.
//
// Returns a cleanup function that should be called on shutdown.
func ConfigureLogging(cfg *Config) (cleanup func(), err error) {
	var writers []io.Writer
	var closers []io.Closer

	if cfg.LogFile != "" {
		rw, ferr := NewRotatingFileWriter(cfg.LogFile, cfg.LogMaxBytes, cfg.LogBackupCount)
		if ferr != nil {
			err = ferr
			log.Printf("[Config] WARNING: Failed to configure file logging: %v", ferr)
		} else {
			writers = append(writers, rw)
			closers = append(closers, rw)
		}
	}

	if cfg.LogToStdout || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	log.SetOutput(io.MultiWriter(writers...))
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	debugEnabled.Store(cfg.Debug())

	cleanup = func() {
		for _, c := range closers {
			c.Close()
		}
	}
	return cleanup, err
}
