package ui

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"

	"facecrop-go/internal/config"
)

func newTestPanel(t *testing.T, onClassifier func(string)) *SessionPanel {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	w := a.NewWindow("test")

	defaults := config.Session{
		InitialDelay: 3 * time.Second,
		Period:       4 * time.Second,
		StartCount:   12,
		BaseName:     "person",
		Format:       "jpg",
	}
	return NewSessionPanel(w, defaults, onClassifier, func() {})
}

func TestSessionPanelPrefillsDefaults(t *testing.T) {
	p := newTestPanel(t, nil)

	want := config.SessionForm{FileName: "person", InitialDelay: "3", CropPeriod: "4", PhotoCount: "12"}
	if got := p.Form(); got != want {
		t.Fatalf("Form() = %+v, want %+v", got, want)
	}
	if !p.StartStop.Disabled() {
		t.Fatal("Start must be disabled until a classifier loads")
	}
}

func TestSessionPanelRunningLocksInputs(t *testing.T) {
	p := newTestPanel(t, nil)
	p.SetClassifierReady(true)

	p.SetRunning(true)
	if !p.Path.Disabled() || !p.PhotoCount.Disabled() || !p.Classifier.Disabled() {
		t.Fatal("inputs should be disabled while running")
	}
	if p.StartStop.Text != "Stop Camera" || p.StartStop.Disabled() {
		t.Fatalf("button = %q disabled=%v", p.StartStop.Text, p.StartStop.Disabled())
	}

	p.SetRunning(false)
	p.SetPhotoCount(15)
	if p.Path.Disabled() || p.PhotoCount.Text != "15" {
		t.Fatalf("after stop: disabled=%v count=%q", p.Path.Disabled(), p.PhotoCount.Text)
	}
	if p.StartStop.Text != "Start Camera" {
		t.Fatalf("button = %q", p.StartStop.Text)
	}
}

func TestSelectClassifierFiresCallback(t *testing.T) {
	var got []string
	p := newTestPanel(t, func(kind string) { got = append(got, kind) })

	p.SelectClassifier("lbp")
	p.SelectClassifier("unknown")
	if len(got) != 1 || got[0] != "lbp" {
		t.Fatalf("callbacks = %v, want [lbp]", got)
	}
	if p.Classifier.Selected != "LBP" {
		t.Fatalf("selected = %q", p.Classifier.Selected)
	}
}
