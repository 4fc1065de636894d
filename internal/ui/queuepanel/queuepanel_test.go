package queuepanel

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/mferal/undertow/internal/catalog"
)

const fiveTracks = `[
	{"id": "a", "name": "Alpha", "artists": ["X"], "album": {"name": "Tape"}, "duration_ms": 100000},
	{"id": "b", "name": "Bravo", "artists": ["X"], "album": {"name": "Tape"}, "duration_ms": 100000},
	{"id": "c", "name": "Charlie", "artists": ["X"], "album": {"name": "Tape"}, "duration_ms": 100000},
	{"id": "d", "name": "Delta", "artists": ["X"], "album": {"name": "Tape"}, "duration_ms": 100000},
	{"id": "e", "name": "Echo", "artists": ["X"], "album": {"name": "Tape"}, "duration_ms": 100000}
]`

func newPanel(t *testing.T) *Model {
	t.Helper()
	c, err := catalog.LoadReader(strings.NewReader(fiveTracks))
	if err != nil {
		t.Fatal(err)
	}
	m := New(c)
	m.SetSize(40, 5)
	return m
}

func TestCursor_WrapsBothWays(t *testing.T) {
	m := newPanel(t)
	m.SetCurrent(4)

	if m.Cursor() != 4 {
		t.Fatalf("Cursor = %d, want 4 after SetCurrent", m.Cursor())
	}
	m.CursorDown()
	if m.Cursor() != 0 {
		t.Errorf("CursorDown from last = %d, want 0", m.Cursor())
	}
	m.CursorUp()
	if m.Cursor() != 4 {
		t.Errorf("CursorUp from first = %d, want 4", m.Cursor())
	}
}

func TestWindow_WrapAroundContext(t *testing.T) {
	m := newPanel(t)
	m.SetCurrent(0)

	got := m.Window(3)
	want := []int{4, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("Window(3) = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Window(3) = %v, want %v", got, want)
			break
		}
	}
}

func TestWindow_LargerThanCatalogClamped(t *testing.T) {
	m := newPanel(t)
	m.SetCurrent(2)

	got := m.Window(10)
	if len(got) != 5 {
		t.Fatalf("Window(10) has %d entries, want 5", len(got))
	}
	seen := map[int]bool{}
	for _, idx := range got {
		if seen[idx] {
			t.Errorf("Window repeats index %d: %v", idx, got)
		}
		seen[idx] = true
	}
}

func TestView_MarksPlayingTrack(t *testing.T) {
	m := newPanel(t)
	m.SetCurrent(1)
	m.SetPlaying(true)

	view := m.View()
	if !strings.Contains(view, "▶ Bravo") {
		t.Errorf("playing marker missing:\n%s", view)
	}

	m.SetPlaying(false)
	if !strings.Contains(m.View(), "⏸ Bravo") {
		t.Error("paused marker missing")
	}
}

func TestView_InvalidSetCurrentIgnored(t *testing.T) {
	m := newPanel(t)
	m.SetCurrent(2)
	m.SetCurrent(99)

	if m.Cursor() != 2 {
		t.Errorf("Cursor = %d, want 2 (invalid index ignored)", m.Cursor())
	}
}

func TestView_PlaceholderCoverWhenNoneLoaded(t *testing.T) {
	m := newPanel(t)
	m.SetSize(30, 20)

	view := m.View()
	if !strings.Contains(view, "░") {
		t.Fatalf("placeholder block missing:\n%s", view)
	}
	if !strings.Contains(view, "Alpha") {
		t.Errorf("track list missing below cover:\n%s", view)
	}
}

func TestView_ThumbnailCoverAfterSetCover(t *testing.T) {
	m := newPanel(t)
	m.SetSize(30, 20)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	m.SetCover(img)

	view := m.View()
	if !strings.Contains(view, "▀") {
		t.Fatalf("thumbnail block missing:\n%s", view)
	}
	if strings.Contains(view, "░") {
		t.Error("placeholder should be replaced once a cover is set")
	}

	m.SetCover(nil)
	if !strings.Contains(m.View(), "░") {
		t.Error("clearing the cover should bring the placeholder back")
	}
}

func TestView_ShortPanelDropsCover(t *testing.T) {
	m := newPanel(t)
	m.SetSize(30, 5)
	m.SetCover(image.NewRGBA(image.Rect(0, 0, 4, 4)))

	view := m.View()
	if strings.Contains(view, "▀") {
		t.Errorf("cover should be dropped on short panels:\n%s", view)
	}
	if !strings.Contains(view, "Alpha") {
		t.Errorf("track list missing:\n%s", view)
	}
}
