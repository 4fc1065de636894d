// Package clock abstracts the three playback position backends behind one
// read interface: local audio decoding, an external MPRIS player polled over
// D-Bus, and a remote playback session.
//
// The interface unifies only the position signal. Control surfaces (play,
// pause, seek) differ per backend, a remote pause being asynchronous and
// fallible over the network, so concrete types keep their own control
// methods, invoked fire-and-forget with logged failure.
package clock

import "time"

// Source is the active playback clock for the current track.
//
// Exactly one Source is active per track; switching tracks closes the old
// Source and acquires a new one. After Close the Ended and Errs channels
// stop delivering, so a late poll from a torn-down backend can never reach
// the player.
type Source interface {
	// Position returns the current playback position. Valid only once
	// Ready reports true; before that it returns 0.
	Position() time.Duration

	// Ready reports whether the backend can deliver positions yet.
	// A Source that never becomes ready leaves the UI in its loading
	// state; no timeout is imposed here.
	Ready() bool

	// Ended delivers one value when the current track finishes.
	Ended() <-chan struct{}

	// Errs delivers backend failures. session.ErrAuthExpired is passed
	// through unwrapped so callers can route to re-authentication.
	Errs() <-chan error

	Close() error
}

// notify performs a non-blocking send, dropping the event if the receiver
// is not keeping up.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func notifyErr(ch chan error, err error) {
	select {
	case ch <- err:
	default:
	}
}
