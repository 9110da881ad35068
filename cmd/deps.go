package cmd

import (
	"fmt"
	"log"

	"facecrop-go/internal/camera"
	"facecrop-go/internal/capture"
	"facecrop-go/internal/config"
	"facecrop-go/internal/journal"
)

// newSource builds the configured video source.
func newSource(c *config.Config) (camera.Source, error) {
	return camera.NewSource(camera.SourceOptions{
		Kind:              c.CameraSource,
		Width:             c.CaptureWidth,
		Height:            c.CaptureHeight,
		Format:            c.CaptureFormat,
		KillDeviceHolders: c.KillDeviceHolders,
	})
}

// openJournal opens the crop journal when enabled. A journal that cannot be
// opened is logged and skipped; capture works without it.
func openJournal(c *config.Config) (capture.Journal, func()) {
	if !c.JournalEnabled {
		return nil, func() {}
	}
	j, err := journal.Open(c.JournalPath)
	if err != nil {
		log.Printf("[Journal] WARNING: journal disabled: %v", err)
		return nil, func() {}
	}
	log.Printf("[Journal] Recording sessions to %s", j.Path())
	return j, func() {
		if err := j.Close(); err != nil {
			log.Printf("[Journal] WARNING: failed to close journal: %v", err)
		}
	}
}

func sourceError(c *config.Config, err error) error {
	return fmt.Errorf("camera source %q: %w", c.CameraSource, err)
}
