package clock

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// The speaker can only be initialized once per process, so the first loaded
// track fixes its sample rate. Later tracks decoded at a different rate are
// resampled to the speaker rate instead of reinitializing.
var (
	speakerMu         sync.Mutex
	speakerReady      bool
	speakerSampleRate beep.SampleRate
)

// Local plays an audio stream through the speaker and reports the decoded
// position. The position is authoritative: it comes straight from the
// streamer, not from wall-clock arithmetic.
type Local struct {
	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	format   beep.Format
	closer   io.Closer
	ctrl     *beep.Ctrl
	ready    bool
	playing  bool
	duration time.Duration

	ended chan struct{}
	errs  chan error
}

// NewLocal creates a local clock with no source loaded.
func NewLocal() *Local {
	return &Local{
		ended: make(chan struct{}, 1),
		errs:  make(chan error, 1),
	}
}

// Load swaps the audio source. The previous streamer is released first; if
// playback was running before the swap it resumes automatically once the
// new source is decoded (the reference player behaves the same way across a
// source-URL change).
func (l *Local) Load(name string, rsc io.ReadSeekCloser) error {
	l.mu.Lock()
	wasPlaying := l.playing
	l.releaseLocked()
	l.mu.Unlock()

	// A finish signal from the old streamer may still be pending; it must
	// not count against the new track.
	select {
	case <-l.ended:
	default:
	}

	streamer, format, err := decode(name, rsc)
	if err != nil {
		rsc.Close()
		return err
	}

	speakerMu.Lock()
	if !speakerReady {
		speakerSampleRate = format.SampleRate
		if err := speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10)); err != nil {
			speakerMu.Unlock()
			streamer.Close()
			rsc.Close()
			return fmt.Errorf("init speaker: %w", err)
		}
		speakerReady = true
	}
	outputRate := speakerSampleRate
	speakerMu.Unlock()

	l.mu.Lock()
	l.streamer = streamer
	l.format = format
	l.closer = rsc
	l.duration = format.SampleRate.D(streamer.Len())
	l.ctrl = &beep.Ctrl{Streamer: outputStreamer(streamer, format.SampleRate, outputRate), Paused: !wasPlaying}
	l.ready = true
	l.playing = wasPlaying
	ctrl := l.ctrl
	l.mu.Unlock()

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		notify(l.ended)
	})))

	return nil
}

// outputStreamer adapts a decoded streamer to the speaker's sample rate.
// Position and duration arithmetic stay in the track's native rate; only
// the samples handed to the speaker are converted.
func outputStreamer(s beep.Streamer, from, to beep.SampleRate) beep.Streamer {
	if from == to {
		return s
	}
	return beep.Resample(4, from, to, s)
}

func decode(name string, r io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		return mp3.Decode(r)
	case ".flac":
		return flac.Decode(r)
	case ".ogg":
		return vorbis.Decode(r)
	case ".wav":
		return wav.Decode(r)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format: %s", filepath.Ext(name))
	}
}

// Play starts or resumes playback.
func (l *Local) Play() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctrl == nil {
		return
	}
	speaker.Lock()
	l.ctrl.Paused = false
	speaker.Unlock()
	l.playing = true
}

// Pause pauses playback.
func (l *Local) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctrl == nil {
		return
	}
	speaker.Lock()
	l.ctrl.Paused = true
	speaker.Unlock()
	l.playing = false
}

// SetPlaying reconciles the backend with the store's playing flag.
func (l *Local) SetPlaying(playing bool) {
	if playing {
		l.Play()
	} else {
		l.Pause()
	}
}

// SeekTo moves to an absolute position. Failure is logged, not returned:
// a missed seek leaves playback running from the old position.
func (l *Local) SeekTo(pos time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.streamer == nil {
		return
	}
	n := l.format.SampleRate.N(pos)
	n = max(n, 0)
	if n >= l.streamer.Len() {
		n = l.streamer.Len() - 1
	}
	speaker.Lock()
	err := l.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		log.Printf("clock: local seek to %v failed: %v", pos, err)
	}
}

func (l *Local) Position() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := l.format.SampleRate.D(l.streamer.Position())
	speaker.Unlock()
	return pos
}

// Duration returns the decoded track length.
func (l *Local) Duration() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.duration
}

func (l *Local) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ready
}

func (l *Local) Ended() <-chan struct{} { return l.ended }

func (l *Local) Errs() <-chan error { return l.errs }

func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releaseLocked()
	return nil
}

func (l *Local) releaseLocked() {
	if l.streamer == nil {
		return
	}
	speaker.Clear()
	l.streamer.Close()
	if l.closer != nil {
		l.closer.Close()
	}
	l.streamer = nil
	l.closer = nil
	l.ctrl = nil
	l.ready = false
}

var _ Source = (*Local)(nil)
