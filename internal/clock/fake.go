package clock

import (
	"sync"
	"time"
)

// Fake is a deterministic clock source for tests: position and readiness
// are set manually, end-of-track and errors are fired on demand.
type Fake struct {
	mu       sync.Mutex
	position time.Duration
	ready    bool
	closed   bool

	ended chan struct{}
	errs  chan error
}

// NewFake creates a fake source, not yet ready.
func NewFake() *Fake {
	return &Fake{
		ended: make(chan struct{}, 1),
		errs:  make(chan error, 1),
	}
}

func (f *Fake) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ready {
		return 0
	}
	return f.position
}

func (f *Fake) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *Fake) Ended() <-chan struct{} { return f.ended }

func (f *Fake) Errs() <-chan error { return f.errs }

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Test helpers

// SetReady marks the source ready.
func (f *Fake) SetReady(ready bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = ready
}

// Advance sets the reported position.
func (f *Fake) Advance(pos time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = pos
}

// FireEnded simulates the track finishing.
func (f *Fake) FireEnded() {
	notify(f.ended)
}

// FireErr simulates a backend failure.
func (f *Fake) FireErr(err error) {
	notifyErr(f.errs, err)
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Verify Fake implements Source at compile time.
var _ Source = (*Fake)(nil)
