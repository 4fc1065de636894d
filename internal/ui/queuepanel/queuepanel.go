// Package queuepanel renders the track list with the circular play order.
package queuepanel

import (
	"image"
	"strings"

	"github.com/mferal/undertow/internal/artwork"
	"github.com/mferal/undertow/internal/catalog"
	"github.com/mferal/undertow/internal/icons"
	"github.com/mferal/undertow/internal/playback"
	"github.com/mferal/undertow/internal/ui"
	"github.com/mferal/undertow/internal/ui/render"
	"github.com/mferal/undertow/internal/ui/styles"
)

// coverHeight is the number of terminal rows the cover block occupies.
// Each row packs two pixel rows, so the rendered image is 16 pixels tall.
const coverHeight = 8

// Model holds the track list panel state.
type Model struct {
	ui.Base
	catalog *catalog.Catalog
	current int // index of the playing track
	cursor  int // index under the selection cursor
	playing bool

	cover      image.Image
	coverLines []string // rendered cover, cached per width
	coverWidth int
}

// New creates a panel over the catalog.
func New(c *catalog.Catalog) *Model {
	return &Model{catalog: c}
}

// SetCurrent marks the playing track and snaps the cursor to it.
func (m *Model) SetCurrent(index int) {
	if !m.catalog.Valid(index) {
		return
	}
	m.current = index
	m.cursor = index
}

// SetCover swaps the album art shown above the list. A nil image falls
// back to the placeholder block.
func (m *Model) SetCover(img image.Image) {
	m.cover = img
	m.coverLines = nil
	m.coverWidth = 0
}

// SetPlaying updates the playing indicator.
func (m *Model) SetPlaying(playing bool) {
	m.playing = playing
}

// Cursor returns the index under the selection cursor.
func (m *Model) Cursor() int {
	return m.cursor
}

// CursorDown moves the cursor forward, wrapping like playback order does.
func (m *Model) CursorDown() {
	m.cursor = playback.NextIndex(m.cursor, m.catalog.Len())
}

// CursorUp moves the cursor backward with the same wrap.
func (m *Model) CursorUp() {
	m.cursor = playback.PreviousIndex(m.cursor, m.catalog.Len())
}

// Window returns the visible slice of track indices, centred on the
// cursor and wrapping around the catalog ends, mirroring the play order.
func (m *Model) Window(size int) []int {
	n := m.catalog.Len()
	if size <= 0 || n == 0 {
		return nil
	}
	if size > n {
		size = n
	}
	start := m.cursor - size/2
	window := make([]int, size)
	for i := range window {
		window[i] = ((start+i)%n + n) % n
	}
	return window
}

// coverBlock renders the cover once per width change and reuses it on
// every frame after that.
func (m *Model) coverBlock(width int) []string {
	if m.coverLines == nil || m.coverWidth != width {
		m.coverLines = artwork.Thumbnail(m.cover, width, coverHeight)
		if m.coverLines == nil {
			m.coverLines = artwork.Placeholder(width, coverHeight)
		}
		m.coverWidth = width
	}
	return m.coverLines
}

// View renders the cover block followed by the visible window. Panels too
// short to fit both drop the cover and keep the list.
func (m *Model) View() string {
	width, height := m.Width(), m.Height()
	if width <= 0 || height <= 0 {
		return ""
	}
	t := styles.T()

	var b strings.Builder
	listHeight := height
	if height >= coverHeight+5 {
		for _, line := range m.coverBlock(width) {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		listHeight = height - coverHeight - 1
	}
	for _, idx := range m.Window(listHeight) {
		track := m.catalog.Track(idx)

		marker := "  "
		if idx == m.current {
			if m.playing {
				marker = icons.Current().Play + " "
			} else {
				marker = icons.Current().Pause + " "
			}
		}

		name := render.Truncate(track.Name, width-len(marker)-8)
		line := marker + name
		line = render.Row(line, render.FormatDuration(track.Duration()), width)

		switch {
		case idx == m.cursor && idx == m.current:
			b.WriteString(t.S().Playing.Render(line))
		case idx == m.cursor:
			b.WriteString(t.S().Title.Render(line))
		case idx == m.current:
			b.WriteString(t.S().Playing.Render(line))
		default:
			b.WriteString(t.S().Muted.Render(line))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
