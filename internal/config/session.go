package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// ErrInvalidSession is wrapped by every session validation failure.
var ErrInvalidSession = errors.New("invalid session settings")

// Session is the configuration value handed to capture.Session.Start.
// It replaces the loose path/name/counter fields the UI used to share.
type Session struct {
	DeviceIndex  int
	InitialDelay time.Duration
	Period       time.Duration
	StartCount   int
	OutputDir    string
	BaseName     string
	Format       string // "jpg" or "png"
}

// DefaultSession returns the session defaults used when config.ini is silent.
func DefaultSession() Session {
	return Session{
		InitialDelay: 1 * time.Second,
		Period:       2 * time.Second,
		StartCount:   0,
		OutputDir:    "",
		BaseName:     "face",
		Format:       "jpg",
	}
}

// CropPath returns the file a crop numbered n is written to.
func (s Session) CropPath(n int) string {
	return filepath.Join(s.OutputDir, fmt.Sprintf("%s_%d.%s", s.BaseName, n, s.Format))
}

// Validate checks the values the core assumes are already valid:
// an existing output directory, a non-empty base name and sane timings.
func (s Session) Validate() error {
	if s.OutputDir != "" {
		info, err := os.Stat(s.OutputDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: path incorrect: %s", ErrInvalidSession, s.OutputDir)
		}
	}
	if strings.TrimSpace(s.BaseName) == "" {
		return fmt.Errorf("%w: file name empty", ErrInvalidSession)
	}
	if strings.ContainsAny(s.BaseName, `/\`) {
		return fmt.Errorf("%w: file name must not contain path separators", ErrInvalidSession)
	}
	if s.StartCount < 0 {
		return fmt.Errorf("%w: photo count must be >= 0", ErrInvalidSession)
	}
	if s.Format != "jpg" && s.Format != "png" {
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidSession, s.Format)
	}
	return s.checkTiming()
}

// MaxSeconds is the largest whole number of seconds a time.Duration holds.
const MaxSeconds = int(math.MaxInt64 / int64(time.Second))

// Seconds converts n whole seconds to a Duration, rejecting values that
// would overflow.
func Seconds(n int) (time.Duration, error) {
	if n > MaxSeconds || n < -MaxSeconds {
		return 0, fmt.Errorf("%w: %d seconds is out of range (max %d)", ErrInvalidSession, n, MaxSeconds)
	}
	return time.Duration(n) * time.Second, nil
}

func (s Session) checkTiming() error {
	if s.InitialDelay < 0 {
		return fmt.Errorf("%w: initial delay must be >= 0", ErrInvalidSession)
	}
	if s.Period < time.Second {
		return fmt.Errorf("%w: crop period must be at least 1s", ErrInvalidSession)
	}
	return nil
}

// SessionForm carries the raw text of the session fields as typed by the user.
type SessionForm struct {
	Path         string
	FileName     string
	InitialDelay string
	CropPeriod   string
	PhotoCount   string
}

// ParseSessionForm converts the form text into a validated Session, starting
// from base for the fields the form does not carry (device, format).
// Delay and period are whole seconds.
func ParseSessionForm(form SessionForm, base Session) (Session, error) {
	s := base
	s.OutputDir = strings.TrimSpace(form.Path)
	s.BaseName = strings.TrimSpace(form.FileName)

	delay, err1 := strconv.Atoi(strings.TrimSpace(form.InitialDelay))
	period, err2 := strconv.Atoi(strings.TrimSpace(form.CropPeriod))
	count, err3 := strconv.Atoi(strings.TrimSpace(form.PhotoCount))
	err := errors.Join(err1, err2, err3)
	if err != nil {
		return base, fmt.Errorf("%w: delay, period and photo count must be integers", ErrInvalidSession)
	}

	if s.InitialDelay, err = Seconds(delay); err != nil {
		return base, err
	}
	if s.Period, err = Seconds(period); err != nil {
		return base, err
	}
	s.StartCount = count

	if err := s.Validate(); err != nil {
		return base, err
	}
	return s, nil
}

// Form renders s back into form text, e.g. to refresh the photo count after a session.
func (s Session) Form() SessionForm {
	return SessionForm{
		Path:         s.OutputDir,
		FileName:     s.BaseName,
		InitialDelay: strconv.Itoa(int(s.InitialDelay / time.Second)),
		CropPeriod:   strconv.Itoa(int(s.Period / time.Second)),
		PhotoCount:   strconv.Itoa(s.StartCount),
	}
}

// secondsKey reads an integer number of seconds, clamped to minSec.
func secondsKey(key *ini.Key, fallback time.Duration, minSec int) time.Duration {
	sec := clampInt(key.MustInt(int(fallback/time.Second)), intPtr(minSec), intPtr(MaxSeconds))
	return time.Duration(sec) * time.Second
}
