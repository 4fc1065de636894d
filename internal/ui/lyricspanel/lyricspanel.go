// Package lyricspanel renders synced lyrics with the active line following
// the playback clock.
package lyricspanel

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/mferal/undertow/internal/catalog"
	"github.com/mferal/undertow/internal/icons"
	"github.com/mferal/undertow/internal/lyrics"
	"github.com/mferal/undertow/internal/ui"
	"github.com/mferal/undertow/internal/ui/render"
	"github.com/mferal/undertow/internal/ui/styles"
)

// State represents what the panel currently shows.
type State int

const (
	StateLoading State = iota
	StateLoaded
	StateNoLyrics
	StateError
)

// Model holds the lyrics panel state.
type Model struct {
	ui.Base
	doc    *lyrics.Document
	offset time.Duration
	state  State
	errMsg string

	currentLine int
	autoScroll  bool
	viewport    viewport.Model

	trackName  string
	artistName string
}

// New creates an empty lyrics panel.
func New() *Model {
	return &Model{
		state:       StateLoading,
		currentLine: -1,
		autoScroll:  true,
		viewport:    viewport.New(0, 0),
	}
}

// SetSize sets the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.Base.SetSize(width, height)
	m.viewport.Width = width
	m.viewport.Height = max(height-2, 1)
	m.refreshContent()
}

// SetTrack resets the panel for a new track. The previous document and
// highlight are dropped immediately so no stale line survives even one
// render before the new lyrics arrive.
func (m *Model) SetTrack(track *catalog.Track) {
	m.doc = nil
	m.offset = track.Offset()
	m.state = StateLoading
	m.errMsg = ""
	m.currentLine = -1
	m.autoScroll = true
	m.trackName = track.Name
	m.artistName = track.PrimaryArtist()
	m.viewport.SetContent("")
	m.viewport.GotoTop()
}

// SetDocument installs the fetched lyrics. An empty document renders as
// "no lyrics", never as an error.
func (m *Model) SetDocument(doc *lyrics.Document, err error) {
	if err != nil {
		m.doc = nil
		m.state = StateError
		m.errMsg = err.Error()
		m.refreshContent()
		return
	}
	if doc.Empty() {
		m.doc = nil
		m.state = StateNoLyrics
		m.refreshContent()
		return
	}
	m.doc = doc
	m.state = StateLoaded
	m.refreshContent()
}

// SetPosition updates the active line from the playback position.
func (m *Model) SetPosition(pos time.Duration) {
	if m.doc == nil {
		return
	}
	line := m.doc.LineAt(pos, m.offset)
	if line == m.currentLine {
		return
	}
	m.currentLine = line
	m.refreshContent()
	if m.autoScroll {
		m.centerCurrentLine()
	}
}

// CurrentLine returns the highlighted line index, -1 when none.
func (m *Model) CurrentLine() int {
	return m.currentLine
}

// HandleKey processes a scroll key, reporting whether it was consumed.
func (m *Model) HandleKey(key string) bool {
	switch key {
	case "j", "down":
		m.autoScroll = false
		m.viewport.ScrollDown(1)
	case "k", "up":
		m.autoScroll = false
		m.viewport.ScrollUp(1)
	case "g":
		m.autoScroll = false
		m.viewport.GotoTop()
	case "G":
		m.autoScroll = false
		m.viewport.GotoBottom()
	case "c":
		m.autoScroll = true
		m.centerCurrentLine()
	default:
		return false
	}
	return true
}

func (m *Model) centerCurrentLine() {
	if m.currentLine < 0 {
		return
	}
	m.viewport.SetYOffset(m.currentLine - m.viewport.Height/2)
}

func (m *Model) refreshContent() {
	if m.state != StateLoaded || m.doc == nil {
		return
	}
	t := styles.T()
	width := max(m.Width(), 1)

	lines := make([]string, len(m.doc.Lines))
	for i, line := range m.doc.Lines {
		text := render.Truncate(line.Text, width-2)
		if i == m.currentLine {
			lines[i] = t.S().ActiveLine.Render(icons.Current().Line + " " + text)
		} else {
			lines[i] = t.S().Muted.Render("  " + text)
		}
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

// View renders the panel body.
func (m *Model) View() string {
	if m.Width() == 0 || m.Height() == 0 {
		return ""
	}

	t := styles.T()
	header := styles.ApplyBoldGradient(render.Truncate(m.trackName, m.Width()), t.Accent, t.Secondary)
	if m.artistName != "" {
		header = render.Row(header, t.S().Subtle.Render(render.Truncate(m.artistName, m.Width()/2)), m.Width())
	}

	var body string
	switch m.state {
	case StateLoading:
		body = render.Center(t.S().Subtle.Render("Loading lyrics…"), m.Width())
	case StateNoLyrics:
		body = render.Center(t.S().Subtle.Render(icons.Current().Note+" No lyrics available"), m.Width())
	case StateError:
		body = render.Center(t.S().Error.Render("Lyrics unavailable"), m.Width()) + "\n" +
			render.Center(t.S().Subtle.Render(render.Truncate(m.errMsg, m.Width())), m.Width())
	case StateLoaded:
		body = m.viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body)
}
