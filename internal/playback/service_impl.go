package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mferal/undertow/internal/catalog"
)

// ErrInvalidIndex reports a track selection outside the catalog bounds.
var ErrInvalidIndex = errors.New("track index out of range")

// ErrEmptyCatalog reports a service constructed over zero tracks.
var ErrEmptyCatalog = errors.New("empty catalog")

// Persister stores playback state so it survives restarts. Implementations
// may debounce; the service calls it after every mutation.
type Persister interface {
	SavePlayback(s State) error
}

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	mu sync.RWMutex

	catalog   *catalog.Catalog
	persister Persister
	state     State

	// Raised the first time the user unpauses this session. Never
	// persisted; it resets every launch.
	userInteracted bool

	subs   []*Subscription
	subsMu sync.RWMutex

	closed bool
}

// New creates a playback service over a non-empty catalog, starting from
// initial. Pass a state returned by Restore or Default. The persister may
// be nil when persistence is disabled.
func New(c *catalog.Catalog, persister Persister, initial State) (Service, error) {
	if c.Len() == 0 {
		return nil, ErrEmptyCatalog
	}
	if !c.Valid(initial.TrackIndex) {
		initial = Default()
	}
	return &serviceImpl{
		catalog:   c,
		persister: persister,
		state:     initial,
	}, nil
}

// Select makes index the current track: position resets to zero, playback
// starts, the session start time refreshes. Manual selection and
// auto-advance both come through here; selecting the current track restarts
// it, and subscribers are notified so the clock is reloaded either way.
// An out-of-range index fails without touching the state.
func (s *serviceImpl) Select(index int) error {
	s.mu.Lock()
	if !s.catalog.Valid(index) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d (catalog has %d tracks)", ErrInvalidIndex, index, s.catalog.Len())
	}
	prev := s.state
	s.state = State{
		TrackIndex: index,
		Position:   0,
		Playing:    true,
		StartedAt:  time.Now(),
	}
	cur := s.state
	track := s.catalog.Track(index)
	s.mu.Unlock()

	s.persist(cur)
	s.broadcastTrack(TrackChange{PreviousIndex: prev.TrackIndex, Index: index, Track: track})
	s.broadcastState(StateChange{Previous: prev, Current: cur})
	return nil
}

// Toggle flips between playing and paused.
func (s *serviceImpl) Toggle() {
	s.mu.Lock()
	prev := s.state
	s.state.Playing = !s.state.Playing
	if s.state.Playing && !s.userInteracted {
		s.userInteracted = true
	}
	cur := s.state
	s.mu.Unlock()

	s.persist(cur)
	s.broadcastState(StateChange{Previous: prev, Current: cur})
}

// Advance records the clock's reported position. Regressions are accepted
// as-is; a seek is a legitimate jump backwards.
func (s *serviceImpl) Advance(pos time.Duration) {
	if pos < 0 {
		pos = 0
	}
	s.mu.Lock()
	s.state.Position = pos
	cur := s.state
	s.mu.Unlock()

	s.persist(cur)
	s.broadcastPosition(pos)
}

// Next moves to the circular successor of the current track.
func (s *serviceImpl) Next() error {
	s.mu.RLock()
	index := NextIndex(s.state.TrackIndex, s.catalog.Len())
	s.mu.RUnlock()
	return s.Select(index)
}

// Previous moves to the circular predecessor of the current track.
func (s *serviceImpl) Previous() error {
	s.mu.RLock()
	index := PreviousIndex(s.state.TrackIndex, s.catalog.Len())
	s.mu.RUnlock()
	return s.Select(index)
}

// HandleEnded advances to the next track and keeps playing. End of track
// always moves forward, wrapping at the end of the catalog.
func (s *serviceImpl) HandleEnded() error {
	return s.Next()
}

// State returns a snapshot of the current playback state.
func (s *serviceImpl) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *serviceImpl) TrackIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.TrackIndex
}

func (s *serviceImpl) Position() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Position
}

func (s *serviceImpl) Playing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Playing
}

// CurrentTrack returns the track the state points at.
func (s *serviceImpl) CurrentTrack() *catalog.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Track(s.state.TrackIndex)
}

// HasUserInteracted reports whether the user has unpaused at least once
// this session.
func (s *serviceImpl) HasUserInteracted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userInteracted
}

// Subscribe creates a new event subscription.
func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

// Close shuts down the service and releases all subscriptions.
func (s *serviceImpl) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	return nil
}

func (s *serviceImpl) persist(state State) {
	if s.persister == nil {
		return
	}
	if err := s.persister.SavePlayback(state); err != nil {
		s.broadcastError(ErrorEvent{Operation: "persist", Err: err})
	}
}

func (s *serviceImpl) broadcastTrack(e TrackChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendTrack(e)
	}
}

func (s *serviceImpl) broadcastState(e StateChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendState(e)
	}
}

func (s *serviceImpl) broadcastPosition(pos time.Duration) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendPosition(pos)
	}
}

func (s *serviceImpl) broadcastError(e ErrorEvent) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendError(e)
	}
}
