package journal

import (
	"errors"
	"image"
	"path/filepath"
	"testing"
	"time"

	"facecrop-go/internal/config"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpenAppliesMigrations(t *testing.T) {
	j := openTemp(t)
	v, err := j.Version()
	if err != nil {
		t.Fatal(err)
	}
	if v != len(migrations) {
		t.Fatalf("Version = %d, want %d", v, len(migrations))
	}

	// Reopening must not re-run migrations.
	path := j.Path()
	j.Close()
	again, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if v2, _ := again.Version(); v2 != v {
		t.Fatalf("Version after reopen = %d, want %d", v2, v)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	j := openTemp(t)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	cfg := config.Session{
		DeviceIndex:  0,
		InitialDelay: time.Second,
		Period:       2 * time.Second,
		StartCount:   5,
		OutputDir:    "/tmp/out",
		BaseName:     "face",
		Format:       "jpg",
	}
	id, err := j.Begin(cfg)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for n := 5; n < 8; n++ {
		if err := j.Crop(id, n, cfg.CropPath(n), image.Rect(n, 0, n+50, 60)); err != nil {
			t.Fatalf("Crop %d: %v", n, err)
		}
	}
	if err := j.End(id, 8); err != nil {
		t.Fatalf("End: %v", err)
	}

	sessions, err := j.Sessions(0, true)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	s := sessions[0]
	if s.ID != id || s.StartCount != 5 || s.FinalCount == nil || *s.FinalCount != 8 {
		t.Fatalf("unexpected session %+v", s)
	}
	if s.Period != "2s" || s.InitialDelay != "1s" || s.EndedAt == nil {
		t.Fatalf("unexpected timing %+v", s)
	}
	if len(s.Crops) != 3 {
		t.Fatalf("got %d crops, want 3", len(s.Crops))
	}
	for i, c := range s.Crops {
		if c.Number != 5+i || c.Path != cfg.CropPath(5+i) || c.Width != 50 || c.Height != 60 {
			t.Errorf("crop %d = %+v", i, c)
		}
	}
}

func TestSessionsNewestFirstWithLimit(t *testing.T) {
	j := openTemp(t)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := j.Begin(config.DefaultSession())
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	got, err := j.Sessions(2, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != ids[2] || got[1].ID != ids[1] {
		t.Fatalf("Sessions(2) = %+v", got)
	}
	if got[0].EndedAt != nil || got[0].FinalCount != nil {
		t.Fatalf("open session reported as ended: %+v", got[0])
	}
}

func TestUnknownSession(t *testing.T) {
	j := openTemp(t)
	if err := j.End("nope", 1); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("End = %v, want ErrUnknownSession", err)
	}
	if err := j.Crop("", 0, "x.jpg", image.Rect(0, 0, 1, 1)); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("Crop = %v, want ErrUnknownSession", err)
	}
	if err := j.Crop("nope", 0, "x.jpg", image.Rect(0, 0, 1, 1)); err == nil {
		t.Error("Crop for a missing session should violate the foreign key")
	}
}
