package render

import (
	"time"

	"github.com/loov/hrtime"
)

// FrameStats accumulates frame durations between snapshots.
type FrameStats struct {
	start time.Duration
	count int
	total time.Duration
	min   time.Duration
	max   time.Duration
}

// FrameSnapshot summarizes the frames recorded since the previous snapshot.
type FrameSnapshot struct {
	Frames int
	Mean   time.Duration
	Min    time.Duration
	Max    time.Duration
}

// FPS is the mean frame rate, zero if no frames were recorded.
func (s FrameSnapshot) FPS() float64 {
	if s.Mean <= 0 {
		return 0
	}
	return float64(time.Second) / float64(s.Mean)
}

func (s *FrameStats) begin() {
	s.start = hrtime.Now()
}

func (s *FrameStats) end() {
	s.Record(hrtime.Since(s.start))
}

// Record adds one frame duration.
func (s *FrameStats) Record(d time.Duration) {
	if s.count == 0 || d < s.min {
		s.min = d
	}
	if d > s.max {
		s.max = d
	}
	s.count++
	s.total += d
}

// Snapshot returns the accumulated summary and starts a new window.
func (s *FrameStats) Snapshot() FrameSnapshot {
	snap := FrameSnapshot{Frames: s.count, Min: s.min, Max: s.max}
	if s.count > 0 {
		snap.Mean = s.total / time.Duration(s.count)
	}
	*s = FrameStats{}
	return snap
}
