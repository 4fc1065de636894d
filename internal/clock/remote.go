package clock

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/mferal/undertow/internal/session"
)

const remotePollInterval = time.Second

// Controller is the slice of the session client the remote clock needs.
type Controller interface {
	CurrentState(ctx context.Context) (*session.State, error)
	Resume(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, pos time.Duration) error
}

// Remote mirrors playback running in a remote session. State arrives once a
// second; between polls the position is interpolated from the last snapshot
// while the remote reports playing.
type Remote struct {
	ctrl Controller

	mu       sync.Mutex
	position time.Duration
	duration time.Duration
	playing  bool
	ready    bool
	snapAt   time.Time

	stopOnce sync.Once
	stop     chan struct{}
	ended    chan struct{}
	errs     chan error
}

// NewRemote starts watching the controller's session.
func NewRemote(ctrl Controller) *Remote {
	r := &Remote{
		ctrl:  ctrl,
		stop:  make(chan struct{}),
		ended: make(chan struct{}, 1),
		errs:  make(chan error, 1),
	}
	go r.watch()
	return r
}

func (r *Remote) watch() {
	ticker := time.NewTicker(remotePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.poll()
		}
	}
}

func (r *Remote) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), remotePollInterval)
	state, err := r.ctrl.CurrentState(ctx)
	cancel()
	if err != nil {
		if errors.Is(err, session.ErrAuthExpired) {
			// Expired credentials are terminal for this source; surface
			// them so the caller can reauthenticate instead of retrying.
			notifyErr(r.errs, err)
			return
		}
		log.Printf("clock: remote state poll failed: %v", err)
		return
	}

	r.mu.Lock()
	prevPlaying := r.playing
	prevPos := r.position
	wasReady := r.ready
	r.position = state.Position()
	r.duration = time.Duration(state.DurationMS) * time.Millisecond
	r.playing = !state.Paused
	r.ready = true
	r.snapAt = time.Now()
	dur := r.duration
	r.mu.Unlock()

	if wasReady && prevPlaying && state.Paused && dur > 0 && prevPos >= dur-2*remotePollInterval {
		notify(r.ended)
	}
}

func (r *Remote) Position() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playing && !r.snapAt.IsZero() {
		pos := r.position + time.Since(r.snapAt)
		if r.duration > 0 && pos > r.duration {
			return r.duration
		}
		return pos
	}
	return r.position
}

func (r *Remote) Playing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

func (r *Remote) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// SetPlaying pushes the desired state to the remote session. The local
// snapshot is updated optimistically so the UI does not lag a full poll.
func (r *Remote) SetPlaying(playing bool) {
	ctx, cancel := context.WithTimeout(context.Background(), remotePollInterval)
	defer cancel()
	var err error
	if playing {
		err = r.ctrl.Resume(ctx)
	} else {
		err = r.ctrl.Pause(ctx)
	}
	if err != nil {
		if errors.Is(err, session.ErrAuthExpired) {
			notifyErr(r.errs, err)
			return
		}
		log.Printf("clock: remote playback control failed: %v", err)
		return
	}
	r.mu.Lock()
	if r.playing && !playing && !r.snapAt.IsZero() {
		r.position += time.Since(r.snapAt)
	}
	r.playing = playing
	r.snapAt = time.Now()
	r.mu.Unlock()
}

func (r *Remote) SeekTo(pos time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), remotePollInterval)
	defer cancel()
	if err := r.ctrl.Seek(ctx, pos); err != nil {
		if errors.Is(err, session.ErrAuthExpired) {
			notifyErr(r.errs, err)
			return
		}
		log.Printf("clock: remote seek failed: %v", err)
		return
	}
	r.mu.Lock()
	r.position = pos
	r.snapAt = time.Now()
	r.mu.Unlock()
}

func (r *Remote) Ended() <-chan struct{} { return r.ended }

func (r *Remote) Errs() <-chan error { return r.errs }

func (r *Remote) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })
	return nil
}

var _ Source = (*Remote)(nil)
var _ Controller = (*session.Client)(nil)
