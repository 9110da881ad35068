// Package config manages configuration for facecrop.
//
// Handles loading config from INI files, environment variables,
// and provides default values for all settings.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// =============================================================================
// Configuration struct
// =============================================================================

// Config holds all runtime configuration values.
type Config struct {
	// Logging
	LogLevel       string // "DEBUG" enables per-tick logging
	LogFile        string
	LogMaxBytes    int
	LogBackupCount int
	LogToStdout    bool

	// Camera
	CameraSource      string // "gocv", "ffmpeg" or "pattern"
	DeviceIndex       int
	CaptureWidth      int
	CaptureHeight     int
	CaptureFormat     string // "mjpeg" or "yuyv"; passed to FFmpeg as -input_format
	KillDeviceHolders bool

	// Detection
	Classifier  string // "haar", "lbp" or "pigo"
	HaarCascade string
	LBPCascade  string
	PigoCascade string

	// Session defaults (the UI form and `run` flags start from these)
	Session Session

	// Journal
	JournalEnabled bool
	JournalPath    string

	// Health
	HealthLogIntervalSec float64
}

// =============================================================================
// Defaults
// =============================================================================

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		// Logging
		LogLevel:       "INFO",
		LogFile:        "./logs/facecrop.log",
		LogMaxBytes:    5 * 1024 * 1024, // 5 MB
		LogBackupCount: 3,
		LogToStdout:    true,

		// Camera
		CameraSource:      "gocv",
		DeviceIndex:       0,
		CaptureWidth:      640,
		CaptureHeight:     480,
		CaptureFormat:     "mjpeg",
		KillDeviceHolders: false,

		// Detection
		Classifier:  "haar",
		HaarCascade: "resources/haarcascades/haarcascade_frontalface_alt.xml",
		LBPCascade:  "resources/lbpcascades/lbpcascade_frontalface.xml",
		PigoCascade: "resources/pigo/facefinder",

		Session: DefaultSession(),

		// Journal
		JournalEnabled: true,
		JournalPath:    "./data/journal.db",

		// Health
		HealthLogIntervalSec: 30.0,
	}
}

// =============================================================================
// Value helpers
// =============================================================================

// clampInt bounds v to [minVal, maxVal]. Pass nil for an open bound.
func clampInt(v int, minVal, maxVal *int) int {
	if minVal != nil && v < *minVal {
		v = *minVal
	}
	if maxVal != nil && v > *maxVal {
		v = *maxVal
	}
	return v
}

// clampFloat bounds v to [minVal, maxVal]. Pass nil for an open bound.
func clampFloat(v float64, minVal, maxVal *float64) float64 {
	if minVal != nil && v < *minVal {
		v = *minVal
	}
	if maxVal != nil && v > *maxVal {
		v = *maxVal
	}
	return v
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// oneOf returns v lower-cased if it is one of allowed, otherwise fallback.
func oneOf(v, fallback string, allowed ...string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return fallback
}

// =============================================================================
// Load + Apply
// =============================================================================

// ConfigPath returns the INI file path to use, respecting env vars.
func ConfigPath() string {
	if p := os.Getenv("FACECROP_CONFIG"); p != "" {
		return p
	}
	return "./config.ini"
}

// Load reads the INI file at the given path (or the default/env path)
// and returns a fully populated Config. Missing sections or keys
// fall back to DefaultConfig() values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	// If file doesn't exist, return defaults (not an error)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applyINI(cfg, file)

	// Environment variable overrides
	if logFile := os.Getenv("FACECROP_LOG_FILE"); logFile != "" {
		cfg.LogFile = logFile
	}

	return cfg, nil
}

// applyINI maps INI sections onto the Config struct. Keys that are absent
// keep the value already in cfg.
func applyINI(cfg *Config, file *ini.File) {
	// [logging]
	sec := file.Section("logging")
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(sec.Key("level").MustString(cfg.LogLevel)))
	cfg.LogFile = sec.Key("file").MustString(cfg.LogFile)
	cfg.LogMaxBytes = clampInt(sec.Key("max_bytes").MustInt(cfg.LogMaxBytes), intPtr(1024), nil)
	cfg.LogBackupCount = clampInt(sec.Key("backup_count").MustInt(cfg.LogBackupCount), intPtr(1), nil)
	cfg.LogToStdout = sec.Key("stdout").MustBool(cfg.LogToStdout)

	// [camera]
	sec = file.Section("camera")
	cfg.CameraSource = oneOf(sec.Key("source").String(), cfg.CameraSource, "gocv", "ffmpeg", "pattern")
	cfg.DeviceIndex = clampInt(sec.Key("device_index").MustInt(cfg.DeviceIndex), intPtr(0), intPtr(63))
	cfg.CaptureWidth = clampInt(sec.Key("width").MustInt(cfg.CaptureWidth), intPtr(160), intPtr(1920))
	cfg.CaptureHeight = clampInt(sec.Key("height").MustInt(cfg.CaptureHeight), intPtr(120), intPtr(1080))
	cfg.CaptureFormat = oneOf(sec.Key("format").String(), cfg.CaptureFormat, "mjpeg", "yuyv")
	cfg.KillDeviceHolders = sec.Key("kill_device_holders").MustBool(cfg.KillDeviceHolders)

	// [detection]
	sec = file.Section("detection")
	cfg.Classifier = oneOf(sec.Key("classifier").String(), cfg.Classifier, "haar", "lbp", "pigo")
	cfg.HaarCascade = sec.Key("haar_cascade").MustString(cfg.HaarCascade)
	cfg.LBPCascade = sec.Key("lbp_cascade").MustString(cfg.LBPCascade)
	cfg.PigoCascade = sec.Key("pigo_cascade").MustString(cfg.PigoCascade)

	// [session]
	sec = file.Section("session")
	s := &cfg.Session
	s.InitialDelay = secondsKey(sec.Key("initial_delay_sec"), s.InitialDelay, 0)
	s.Period = secondsKey(sec.Key("period_sec"), s.Period, 1)
	s.StartCount = clampInt(sec.Key("start_count").MustInt(s.StartCount), intPtr(0), nil)
	s.OutputDir = sec.Key("output_dir").MustString(s.OutputDir)
	s.BaseName = sec.Key("base_name").MustString(s.BaseName)
	s.Format = oneOf(sec.Key("format").String(), s.Format, "jpg", "png")
	s.DeviceIndex = cfg.DeviceIndex

	// [journal]
	sec = file.Section("journal")
	cfg.JournalEnabled = sec.Key("enabled").MustBool(cfg.JournalEnabled)
	cfg.JournalPath = sec.Key("path").MustString(cfg.JournalPath)

	// [health]
	sec = file.Section("health")
	cfg.HealthLogIntervalSec = clampFloat(sec.Key("log_interval_sec").MustFloat64(cfg.HealthLogIntervalSec), floatPtr(0), nil)
}

// ClassifierPath returns the cascade file configured for kind.
func (c *Config) ClassifierPath(kind string) string {
	switch kind {
	case "lbp":
		return c.LBPCascade
	case "pigo":
		return c.PigoCascade
	default:
		return c.HaarCascade
	}
}

// Debug reports whether per-tick debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "DEBUG"
}

// =============================================================================
// Validate
// =============================================================================

// Validate checks whether the Config values are reasonable and returns
// warnings. Returns ok=false if any setting is critically problematic.
func (c *Config) Validate() (ok bool, warnings []string) {
	ok = true

	if path := c.ClassifierPath(c.Classifier); path != "" {
		if _, err := os.Stat(path); err != nil {
			warnings = append(warnings, fmt.Sprintf("Cascade for %q not found at %s", c.Classifier, path))
		}
	}

	if c.CameraSource == "ffmpeg" && c.CaptureWidth*c.CaptureHeight > 1280*720 {
		warnings = append(warnings, "High resolution MJPEG capture may not keep up with a 33ms frame interval")
	}

	if c.JournalEnabled && c.JournalPath == "" {
		ok = false
		warnings = append(warnings, "Journal enabled but journal.path is empty")
	}

	if err := c.Session.checkTiming(); err != nil {
		ok = false
		warnings = append(warnings, err.Error())
	}

	return ok, warnings
}
