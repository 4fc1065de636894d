package playback

import "time"

// State is a snapshot of playback: which track, where in it, and whether it
// is running. StartedAt is wall clock and only matters for backends that
// report elapsed deltas instead of absolute positions.
type State struct {
	TrackIndex int
	Position   time.Duration
	Playing    bool
	StartedAt  time.Time
}

// Default returns the state used on first launch: first track, paused, at
// the beginning.
func Default() State {
	return State{StartedAt: time.Now()}
}

// Restore sanitizes a persisted state for a new session. Playback never
// auto-resumes without a fresh user gesture unless resume is set, and the
// session start time is always refreshed. A track index that no longer fits
// the catalog falls back to the default state.
func Restore(s State, trackCount int, resume bool) State {
	if s.TrackIndex < 0 || s.TrackIndex >= trackCount {
		return Default()
	}
	if s.Position < 0 {
		s.Position = 0
	}
	if !resume {
		s.Playing = false
	}
	s.StartedAt = time.Now()
	return s
}
