package playback

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mferal/undertow/internal/catalog"
)

const testCatalogJSON = `[
	{"id": "tr-1", "name": "Undertow", "artists": ["Mercury Veil"], "album": {"name": "Low Tide"}, "duration_ms": 180000},
	{"id": "tr-2", "name": "Salt Air", "artists": ["Mercury Veil"], "album": {"name": "Low Tide"}, "duration_ms": 200000},
	{"id": "tr-3", "name": "Overcast", "artists": ["Glass Harbor"], "album": {"name": "Driftlines"}, "duration_ms": 240000}
]`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadReader(strings.NewReader(testCatalogJSON))
	if err != nil {
		t.Fatalf("load test catalog: %v", err)
	}
	return c
}

type recordingPersister struct {
	saved []State
	err   error
}

func (p *recordingPersister) SavePlayback(s State) error {
	if p.err != nil {
		return p.err
	}
	p.saved = append(p.saved, s)
	return nil
}

func newTestService(t *testing.T, p Persister) Service {
	t.Helper()
	svc, err := New(testCatalog(t), p, Default())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return svc
}

func TestNew_RejectsEmptyCatalog(t *testing.T) {
	empty := &catalog.Catalog{}
	if _, err := New(empty, nil, Default()); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("New(empty catalog) error = %v, want ErrEmptyCatalog", err)
	}
}

func TestService_Select_StartsPlayback(t *testing.T) {
	svc := newTestService(t, nil)

	if err := svc.Select(2); err != nil {
		t.Fatalf("Select(2) error: %v", err)
	}

	state := svc.State()
	if state.TrackIndex != 2 {
		t.Errorf("TrackIndex = %d, want 2", state.TrackIndex)
	}
	if state.Position != 0 {
		t.Errorf("Position = %v, want 0", state.Position)
	}
	if !state.Playing {
		t.Error("Select should start playback")
	}
	if got := svc.CurrentTrack().ID; got != "tr-3" {
		t.Errorf("CurrentTrack().ID = %q, want tr-3", got)
	}
}

func TestService_Select_InvalidIndexLeavesStateUntouched(t *testing.T) {
	svc := newTestService(t, nil)
	if err := svc.Select(1); err != nil {
		t.Fatalf("Select(1) error: %v", err)
	}
	svc.Advance(30 * time.Second)
	before := svc.State()

	for _, index := range []int{-1, 3, 42} {
		err := svc.Select(index)
		if !errors.Is(err, ErrInvalidIndex) {
			t.Errorf("Select(%d) error = %v, want ErrInvalidIndex", index, err)
		}
	}

	after := svc.State()
	if after != before {
		t.Errorf("state mutated by failed Select: before %+v, after %+v", before, after)
	}
}

func TestService_Toggle_FlipsPlaying(t *testing.T) {
	svc := newTestService(t, nil)

	if svc.Playing() {
		t.Fatal("service should start paused")
	}
	svc.Toggle()
	if !svc.Playing() {
		t.Error("Toggle should unpause")
	}
	svc.Toggle()
	if svc.Playing() {
		t.Error("second Toggle should pause")
	}
}

func TestService_Toggle_RaisesInteractionFlagOnce(t *testing.T) {
	svc := newTestService(t, nil)

	if svc.HasUserInteracted() {
		t.Fatal("flag should start lowered")
	}
	svc.Toggle()
	if !svc.HasUserInteracted() {
		t.Error("first unpause should raise the flag")
	}
	svc.Toggle()
	svc.Toggle()
	if !svc.HasUserInteracted() {
		t.Error("flag must stay raised for the rest of the session")
	}
}

func TestService_InteractionFlagNotPersisted(t *testing.T) {
	p := &recordingPersister{}
	svc := newTestService(t, p)

	svc.Toggle()

	if len(p.saved) == 0 {
		t.Fatal("Toggle should persist state")
	}
	// State carries no interaction field at all; restoring what was saved
	// must yield a service with the flag lowered.
	restored, err := New(testCatalog(t), nil, Restore(p.saved[len(p.saved)-1], 3, false))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if restored.HasUserInteracted() {
		t.Error("interaction flag leaked across sessions")
	}
}

func TestService_Advance_AcceptsRegressions(t *testing.T) {
	svc := newTestService(t, nil)

	svc.Advance(60 * time.Second)
	svc.Advance(10 * time.Second)

	if got := svc.Position(); got != 10*time.Second {
		t.Errorf("Position() = %v, want 10s (seek backwards is legitimate)", got)
	}
}

func TestService_Advance_ClampsNegative(t *testing.T) {
	svc := newTestService(t, nil)
	svc.Advance(-time.Second)
	if got := svc.Position(); got != 0 {
		t.Errorf("Position() = %v, want 0", got)
	}
}

func TestService_NextPrevious_Circular(t *testing.T) {
	svc := newTestService(t, nil)

	if err := svc.Select(2); err != nil {
		t.Fatal(err)
	}
	if err := svc.Next(); err != nil {
		t.Fatal(err)
	}
	if got := svc.TrackIndex(); got != 0 {
		t.Errorf("Next from last track: TrackIndex = %d, want 0", got)
	}

	if err := svc.Previous(); err != nil {
		t.Fatal(err)
	}
	if got := svc.TrackIndex(); got != 2 {
		t.Errorf("Previous from first track: TrackIndex = %d, want 2", got)
	}
}

func TestService_HandleEnded_WrapsAndKeepsPlaying(t *testing.T) {
	svc := newTestService(t, nil)

	if err := svc.Select(2); err != nil {
		t.Fatal(err)
	}
	if err := svc.HandleEnded(); err != nil {
		t.Fatal(err)
	}

	state := svc.State()
	if state.TrackIndex != 0 {
		t.Errorf("TrackIndex = %d, want 0 (wrap)", state.TrackIndex)
	}
	if !state.Playing {
		t.Error("auto-advance must keep playing")
	}
	if state.Position != 0 {
		t.Errorf("Position = %v, want 0", state.Position)
	}
}

func TestService_PersistsEveryMutation(t *testing.T) {
	p := &recordingPersister{}
	svc := newTestService(t, p)

	if err := svc.Select(1); err != nil {
		t.Fatal(err)
	}
	svc.Toggle()
	svc.Advance(5 * time.Second)

	if len(p.saved) != 3 {
		t.Fatalf("persisted %d states, want 3", len(p.saved))
	}
	last := p.saved[len(p.saved)-1]
	if last.TrackIndex != 1 || last.Position != 5*time.Second {
		t.Errorf("last persisted state = %+v", last)
	}
}

func TestService_PersistFailureEmitsError(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	svc := newTestService(t, p)
	sub := svc.Subscribe()

	svc.Toggle()

	select {
	case e := <-sub.Error:
		if e.Operation != "persist" {
			t.Errorf("ErrorEvent.Operation = %q, want persist", e.Operation)
		}
	default:
		t.Fatal("persist failure not surfaced")
	}
}

func TestService_SelectEmitsTrackChange(t *testing.T) {
	svc := newTestService(t, nil)
	sub := svc.Subscribe()

	if err := svc.Select(1); err != nil {
		t.Fatal(err)
	}

	select {
	case e := <-sub.TrackChanged:
		if e.PreviousIndex != 0 || e.Index != 1 {
			t.Errorf("TrackChange = %+v, want 0 -> 1", e)
		}
		if e.Track == nil || e.Track.ID != "tr-2" {
			t.Errorf("TrackChange.Track = %+v, want tr-2", e.Track)
		}
	default:
		t.Fatal("no TrackChange emitted")
	}
}

func TestService_ReselectingSameTrackRestartsIt(t *testing.T) {
	svc := newTestService(t, nil)
	if err := svc.Select(1); err != nil {
		t.Fatal(err)
	}
	svc.Advance(30 * time.Second)
	sub := svc.Subscribe()

	if err := svc.Select(1); err != nil {
		t.Fatal(err)
	}

	// A restart must reach subscribers too: the clock only rewinds in
	// response to TrackChange.
	select {
	case e := <-sub.TrackChanged:
		if e.PreviousIndex != 1 || e.Index != 1 {
			t.Errorf("TrackChange = %+v, want restart of index 1", e)
		}
	default:
		t.Error("no TrackChange emitted on reselect")
	}
	select {
	case <-sub.StateChanged:
	default:
		t.Error("no StateChange emitted")
	}
	if got := svc.Position(); got != 0 {
		t.Errorf("Position after reselect = %v, want 0", got)
	}
}

func TestService_SingleTrackAutoAdvanceRestarts(t *testing.T) {
	c, err := catalog.LoadReader(strings.NewReader(`[{"id":"only","name":"Only Track","artists":["Solo"],"duration_ms":120000}]`))
	if err != nil {
		t.Fatal(err)
	}
	svc, err := New(c, nil, Default())
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()
	sub := svc.Subscribe()

	svc.Advance(119 * time.Second)
	if err := svc.HandleEnded(); err != nil {
		t.Fatal(err)
	}

	if got := svc.TrackIndex(); got != 0 {
		t.Errorf("TrackIndex = %d, want 0", got)
	}
	if !svc.Playing() {
		t.Error("playback should continue after wrap-around")
	}
	if got := svc.Position(); got != 0 {
		t.Errorf("Position = %v, want 0", got)
	}
	select {
	case e := <-sub.TrackChanged:
		if e.Index != 0 {
			t.Errorf("TrackChange.Index = %d, want 0", e.Index)
		}
	default:
		t.Error("no TrackChange emitted, clock would never reload")
	}
}

func TestService_AdvanceEmitsPosition(t *testing.T) {
	svc := newTestService(t, nil)
	sub := svc.Subscribe()

	svc.Advance(42 * time.Second)

	select {
	case e := <-sub.PositionChanged:
		if e.Position != 42*time.Second {
			t.Errorf("PositionChange = %v, want 42s", e.Position)
		}
	default:
		t.Fatal("no PositionChange emitted")
	}
}

func TestService_CloseReleasesSubscriptions(t *testing.T) {
	svc := newTestService(t, nil)
	sub := svc.Subscribe()

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	select {
	case <-sub.Done:
	default:
		t.Error("Done not closed")
	}

	// Close is idempotent.
	if err := svc.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}
