package playback

import (
	"time"

	"github.com/mferal/undertow/internal/catalog"
)

// Service is the single writer of playback state. Every mutation goes
// through one of Select, Toggle or Advance; everything else is derived.
type Service interface {
	// Mutations
	Select(index int) error
	Toggle()
	Advance(pos time.Duration)

	// Navigation (built on Select)
	Next() error
	Previous() error
	HandleEnded() error

	// State queries
	State() State
	TrackIndex() int
	Position() time.Duration
	Playing() bool
	CurrentTrack() *catalog.Track
	HasUserInteracted() bool

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}

// NextIndex returns the circular successor of i in a list of n tracks.
func NextIndex(i, n int) int {
	return (i + 1) % n
}

// PreviousIndex returns the circular predecessor of i in a list of n tracks.
func PreviousIndex(i, n int) int {
	return (i - 1 + n) % n
}
