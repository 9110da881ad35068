package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeINI(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.ini"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := DefaultConfig()
	if cfg.Classifier != def.Classifier || cfg.Session != def.Session || cfg.CameraSource != "gocv" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Session.InitialDelay != time.Second || cfg.Session.Period != 2*time.Second {
		t.Fatalf("session timing = %v/%v", cfg.Session.InitialDelay, cfg.Session.Period)
	}
}

func TestLoadOverridesAndClamps(t *testing.T) {
	path := writeINI(t, `
[logging]
level = debug
max_bytes = 10

[camera]
source = pattern
device_index = 2
width = 99999
format = h264

[detection]
classifier = pigo
pigo_cascade = /opt/cascades/facefinder

[session]
initial_delay_sec = -4
period_sec = 0
start_count = 7
base_name = visitor
format = png

[journal]
enabled = false

[health]
log_interval_sec = 5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"level", cfg.LogLevel, "DEBUG"},
		{"max_bytes", cfg.LogMaxBytes, 1024},
		{"source", cfg.CameraSource, "pattern"},
		{"device", cfg.DeviceIndex, 2},
		{"session device", cfg.Session.DeviceIndex, 2},
		{"width", cfg.CaptureWidth, 1920},
		{"format fallback", cfg.CaptureFormat, "mjpeg"},
		{"classifier", cfg.Classifier, "pigo"},
		{"classifier path", cfg.ClassifierPath("pigo"), "/opt/cascades/facefinder"},
		{"delay", cfg.Session.InitialDelay, time.Duration(0)},
		{"period", cfg.Session.Period, time.Second},
		{"count", cfg.Session.StartCount, 7},
		{"base", cfg.Session.BaseName, "visitor"},
		{"crop format", cfg.Session.Format, "png"},
		{"journal", cfg.JournalEnabled, false},
		{"health", cfg.HealthLogIntervalSec, 5.0},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if !cfg.Debug() {
		t.Error("Debug() false for level DEBUG")
	}
}

func TestLoadRejectsBrokenINI(t *testing.T) {
	path := writeINI(t, "[camera\nsource = gocv\n")
	cfg, err := Load(path)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if cfg == nil || cfg.CameraSource != "gocv" {
		t.Fatal("parse error should still return defaults")
	}
}

func TestValidateWarnsAboutMissingCascade(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HaarCascade = filepath.Join(t.TempDir(), "missing.xml")

	ok, warnings := cfg.Validate()
	if !ok {
		t.Fatal("a missing cascade is a warning, not fatal")
	}
	if len(warnings) == 0 || !strings.Contains(warnings[0], "missing.xml") {
		t.Fatalf("warnings = %v", warnings)
	}

	cfg.JournalPath = ""
	if ok, _ := cfg.Validate(); ok {
		t.Fatal("enabled journal without a path must fail validation")
	}
}
