//go:build !linux

package clock

import (
	"errors"
	"time"
)

// ExtPlayer is unavailable off Linux; MPRIS needs a D-Bus session bus.
type ExtPlayer struct{}

func NewExtPlayer(_ string) (*ExtPlayer, error) {
	return nil, errors.New("external player clock requires linux")
}

func (e *ExtPlayer) Position() time.Duration { return 0 }
func (e *ExtPlayer) Playing() bool           { return false }
func (e *ExtPlayer) Ready() bool             { return false }
func (e *ExtPlayer) Ended() <-chan struct{}  { return nil }
func (e *ExtPlayer) Errs() <-chan error      { return nil }
func (e *ExtPlayer) Close() error            { return nil }
func (e *ExtPlayer) Play()                   {}
func (e *ExtPlayer) Pause()                  {}
func (e *ExtPlayer) SetPlaying(_ bool)       {}
func (e *ExtPlayer) SeekTo(_ time.Duration)  {}
