package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestCropPath(t *testing.T) {
	s := Session{OutputDir: "/data/out", BaseName: "face", Format: "jpg"}
	if got := s.CropPath(5); got != filepath.Join("/data/out", "face_5.jpg") {
		t.Fatalf("CropPath = %s", got)
	}
	s.OutputDir = ""
	if got := s.CropPath(0); got != "face_0.jpg" {
		t.Fatalf("CropPath without dir = %s", got)
	}
}

func TestParseSessionForm(t *testing.T) {
	dir := t.TempDir()
	base := DefaultSession()
	base.DeviceIndex = 1

	valid := SessionForm{Path: dir, FileName: " person ", InitialDelay: "1", CropPeriod: "2", PhotoCount: "0"}

	cases := []struct {
		name string
		edit func(*SessionForm)
		ok   bool
	}{
		{"valid", func(*SessionForm) {}, true},
		{"empty path means working dir", func(f *SessionForm) { f.Path = "" }, true},
		{"zero delay", func(f *SessionForm) { f.InitialDelay = "0" }, true},
		{"missing dir", func(f *SessionForm) { f.Path = filepath.Join(dir, "nope") }, false},
		{"empty name", func(f *SessionForm) { f.FileName = "  " }, false},
		{"name with separator", func(f *SessionForm) { f.FileName = "a/b" }, false},
		{"period not integer", func(f *SessionForm) { f.CropPeriod = "1.5" }, false},
		{"period zero", func(f *SessionForm) { f.CropPeriod = "0" }, false},
		{"negative delay", func(f *SessionForm) { f.InitialDelay = "-1" }, false},
		{"negative count", func(f *SessionForm) { f.PhotoCount = "-3" }, false},
		{"count text", func(f *SessionForm) { f.PhotoCount = "ten" }, false},
		{"delay overflows", func(f *SessionForm) { f.InitialDelay = "99999999999" }, false},
		{"period overflows", func(f *SessionForm) { f.CropPeriod = "99999999999" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := valid
			tc.edit(&form)
			s, err := ParseSessionForm(form, base)
			if !tc.ok {
				if !errors.Is(err, ErrInvalidSession) {
					t.Fatalf("err = %v, want ErrInvalidSession", err)
				}
				if s != base {
					t.Fatal("invalid form must return the base session")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.BaseName != "person" || s.DeviceIndex != 1 || s.Format != "jpg" {
				t.Fatalf("session = %+v", s)
			}
		})
	}
}

func TestSessionFormRoundTrip(t *testing.T) {
	s := Session{InitialDelay: 3 * time.Second, Period: 5 * time.Second, StartCount: 11, BaseName: "x", Format: "png"}
	got, err := ParseSessionForm(s.Form(), s)
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Fatalf("round trip = %+v, want %+v", got, s)
	}
}

func TestSecondsBounds(t *testing.T) {
	d, err := Seconds(MaxSeconds)
	if err != nil || d <= 0 {
		t.Fatalf("Seconds(MaxSeconds) = %v, %v", d, err)
	}
	if _, err := Seconds(MaxSeconds + 1); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("err = %v, want ErrInvalidSession", err)
	}
	if d, _ := Seconds(3); d != 3*time.Second {
		t.Fatalf("Seconds(3) = %v", d)
	}
}
