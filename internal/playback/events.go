package playback

import (
	"time"

	"github.com/mferal/undertow/internal/catalog"
)

// TrackChange is emitted on every successful Select.
//
// Emitted by:
//   - Select: manual selection and everything built on it, including
//     reselecting the current track (a restart; PreviousIndex == Index)
//   - Next/Previous: circular navigation
//   - HandleEnded: auto-advance when the clock reports end of track
//
// NOT emitted by:
//   - Toggle: play/pause does not change the track
//   - Advance: position ticks do not change the track
//
// Subscribers handle all track side effects (clock swap and rewind, lyrics
// load, artwork refresh) in response to this one event. A single-track
// catalog depends on the restart case: auto-advance wraps back to the same
// index and the clock must still reload.
type TrackChange struct {
	PreviousIndex int
	Index         int
	Track         *catalog.Track
}

// StateChange is emitted when the playing flag or track position resets.
type StateChange struct {
	Previous State
	Current  State
}

// PositionChange is emitted on every accepted position tick.
type PositionChange struct {
	Position time.Duration
}

// ErrorEvent is emitted when a playback operation fails.
type ErrorEvent struct {
	Operation string // e.g. "persist", "clock"
	Err       error
}
