//go:build linux

package clock

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"

	extPollInterval = 100 * time.Millisecond
)

// ExtPlayer tracks an external MPRIS player over the session bus. The player
// owns the audio; we only mirror its position and playback status, polled at
// a fixed interval because not every player emits Seeked reliably.
type ExtPlayer struct {
	bus     *dbus.Conn
	ownsBus bool
	service string

	mu       sync.Mutex
	position time.Duration
	playing  bool
	ready    bool
	length   time.Duration
	lastPoll time.Time

	stopOnce sync.Once
	stop     chan struct{}
	ended    chan struct{}
	errs     chan error
}

// NewExtPlayer connects to the session bus and starts polling the named
// MPRIS service (e.g. "org.mpris.MediaPlayer2.spotify"). Ready reports true
// once the first poll has answered.
func NewExtPlayer(service string) (*ExtPlayer, error) {
	bus, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	e := newExtPlayer(bus, service)
	e.ownsBus = true
	go e.pollLoop()
	return e, nil
}

func newExtPlayer(bus *dbus.Conn, service string) *ExtPlayer {
	return &ExtPlayer{
		bus:     bus,
		service: service,
		stop:    make(chan struct{}),
		ended:   make(chan struct{}, 1),
		errs:    make(chan error, 1),
	}
}

func (e *ExtPlayer) pollLoop() {
	ticker := time.NewTicker(extPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.poll()
		}
	}
}

func (e *ExtPlayer) poll() {
	obj := e.bus.Object(e.service, mprisPath)

	posProp, err := obj.GetProperty(mprisPlayerIface + ".Position")
	if err != nil {
		e.mu.Lock()
		wasReady := e.ready
		e.ready = false
		e.mu.Unlock()
		if wasReady {
			notifyErr(e.errs, fmt.Errorf("external player unreachable: %w", err))
		}
		return
	}

	micros, ok := posProp.Value().(int64)
	if !ok || micros < 0 {
		micros = 0
	}
	pos := time.Duration(micros) * time.Microsecond

	playing := false
	if statusProp, err := obj.GetProperty(mprisPlayerIface + ".PlaybackStatus"); err == nil {
		if status, ok := statusProp.Value().(string); ok {
			playing = status == "Playing"
		}
	}

	length := e.trackLength(obj)

	e.mu.Lock()
	prevPos := e.position
	prevPlaying := e.playing
	wasReady := e.ready
	e.position = pos
	e.playing = playing
	e.length = length
	e.ready = true
	e.lastPoll = time.Now()
	e.mu.Unlock()

	// A jump back to (near) zero while the player reports Stopped or a
	// position past the track length is the closest MPRIS gets to an
	// end-of-track signal.
	if wasReady && prevPlaying && !playing && length > 0 && prevPos >= length-time.Second {
		notify(e.ended)
	}
}

func (e *ExtPlayer) trackLength(obj dbus.BusObject) time.Duration {
	prop, err := obj.GetProperty(mprisPlayerIface + ".Metadata")
	if err != nil {
		return 0
	}
	metadata, ok := prop.Value().(map[string]dbus.Variant)
	if !ok {
		return 0
	}
	variant, ok := metadata["mpris:length"]
	if !ok {
		return 0
	}
	switch v := variant.Value().(type) {
	case int64:
		if v > 0 {
			return time.Duration(v) * time.Microsecond
		}
	case uint64:
		return time.Duration(v) * time.Microsecond
	}
	return 0
}

// call issues a fire-and-forget control method on the player. Failures are
// logged because there is nothing useful the caller can do with them.
func (e *ExtPlayer) call(method string) {
	obj := e.bus.Object(e.service, mprisPath)
	if err := obj.Call(mprisPlayerIface+"."+method, 0).Err; err != nil {
		log.Printf("clock: mpris %s on %s failed: %v", method, e.service, err)
	}
}

func (e *ExtPlayer) Play()  { e.call("Play") }
func (e *ExtPlayer) Pause() { e.call("Pause") }

func (e *ExtPlayer) SetPlaying(playing bool) {
	if playing {
		e.Play()
	} else {
		e.Pause()
	}
}

// SeekTo sets an absolute position. MPRIS SetPosition needs the current
// track id, so fall back to a relative Seek when metadata is unavailable.
func (e *ExtPlayer) SeekTo(pos time.Duration) {
	obj := e.bus.Object(e.service, mprisPath)
	micros := pos.Microseconds()

	if id, ok := e.currentTrackID(obj); ok {
		if err := obj.Call(mprisPlayerIface+".SetPosition", 0, id, micros).Err; err == nil {
			return
		}
	}

	e.mu.Lock()
	delta := micros - e.position.Microseconds()
	e.mu.Unlock()
	if err := obj.Call(mprisPlayerIface+".Seek", 0, delta).Err; err != nil {
		log.Printf("clock: mpris seek on %s failed: %v", e.service, err)
	}
}

func (e *ExtPlayer) currentTrackID(obj dbus.BusObject) (dbus.ObjectPath, bool) {
	prop, err := obj.GetProperty(mprisPlayerIface + ".Metadata")
	if err != nil {
		return "", false
	}
	metadata, ok := prop.Value().(map[string]dbus.Variant)
	if !ok {
		return "", false
	}
	variant, ok := metadata["mpris:trackid"]
	if !ok {
		return "", false
	}
	switch v := variant.Value().(type) {
	case dbus.ObjectPath:
		return v, true
	case string:
		return dbus.ObjectPath(v), true
	}
	return "", false
}

func (e *ExtPlayer) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing && !e.lastPoll.IsZero() {
		// Interpolate between polls so the position does not step in
		// 100ms increments.
		return e.position + time.Since(e.lastPoll)
	}
	return e.position
}

func (e *ExtPlayer) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *ExtPlayer) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

func (e *ExtPlayer) Ended() <-chan struct{} { return e.ended }

func (e *ExtPlayer) Errs() <-chan error { return e.errs }

func (e *ExtPlayer) Close() error {
	e.stopOnce.Do(func() { close(e.stop) })
	if e.ownsBus && e.bus != nil {
		return e.bus.Close()
	}
	return nil
}

// FindPlayer returns the first MPRIS service name on the bus, preferring an
// exact match of want when given.
func FindPlayer(bus *dbus.Conn, want string) (string, error) {
	var names []string
	err := bus.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	if err != nil {
		return "", fmt.Errorf("list bus names: %w", err)
	}
	first := ""
	for _, name := range names {
		if !strings.HasPrefix(name, "org.mpris.MediaPlayer2.") {
			continue
		}
		if want != "" && name == want {
			return name, nil
		}
		if first == "" {
			first = name
		}
	}
	if want != "" {
		return "", fmt.Errorf("mpris service %s not found", want)
	}
	if first == "" {
		return "", errors.New("no mpris players on the bus")
	}
	return first, nil
}

var _ Source = (*ExtPlayer)(nil)
