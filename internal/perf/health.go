package perf

import (
	"context"
	"fmt"
	"log"
	"time"

	"facecrop-go/internal/capture"
)

// LogHealth writes one "[Health]" line per interval until ctx is done.
// stats is called from this goroutine only.
func LogHealth(ctx context.Context, interval time.Duration, stats func() capture.Stats) {
	if interval <= 0 {
		return
	}
	monitor := NewMonitor()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastFrames uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		st := stats()
		if err := monitor.Update(); err != nil {
			log.Printf("[Health] WARNING: failed to read system stats: %v", err)
		}
		fps := float64(st.Frames-lastFrames) / interval.Seconds()
		if st.Frames < lastFrames {
			// A new session restarted the counters.
			fps = float64(st.Frames) / interval.Seconds()
		}
		lastFrames = st.Frames

		log.Print(formatHealth(st, fps, monitor))
	}
}

func formatHealth(st capture.Stats, fps float64, m *Monitor) string {
	line := fmt.Sprintf("[Health] state=%s fps=%.1f frames=%d crops=%d windows=%d count=%d failed_ticks=%d load=%.2f mem=%.0f%%",
		st.State, fps, st.Frames, st.Crops, st.Windows, st.Count, st.FailedTicks, m.LoadAverage(), m.MemoryUsage())
	if temp, ok := m.Temperature(); ok {
		line += fmt.Sprintf(" temp=%.1fC", temp)
	}
	if !st.LastFrameAt.IsZero() && st.State == capture.StateActive {
		if age := time.Since(st.LastFrameAt); age > time.Second {
			line += fmt.Sprintf(" stale=%v", age.Round(time.Millisecond))
		}
	}
	if m.IsUnderStress() {
		line += " STRESSED"
	}
	return line
}
