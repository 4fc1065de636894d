// Package playerbar renders the one-line playback status bar.
package playerbar

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mferal/undertow/internal/catalog"
	"github.com/mferal/undertow/internal/icons"
	"github.com/mferal/undertow/internal/ui"
	"github.com/mferal/undertow/internal/ui/render"
	"github.com/mferal/undertow/internal/ui/styles"
)

const (
	filledBlock = "▓"
	emptyBlock  = "░"
)

// Model holds the player bar state.
type Model struct {
	ui.Base
	track    *catalog.Track
	position time.Duration
	playing  bool
	loading  bool
}

// New creates an empty player bar.
func New() *Model {
	return &Model{}
}

// SetTrack switches the bar to a new track.
func (m *Model) SetTrack(track *catalog.Track) {
	m.track = track
	m.position = 0
	m.loading = true
}

// SetPosition updates the playback position.
func (m *Model) SetPosition(pos time.Duration) {
	m.position = pos
}

// SetPlaying updates the play/pause indicator.
func (m *Model) SetPlaying(playing bool) {
	m.playing = playing
}

// SetLoading marks whether the clock is still buffering. A loading bar
// shows a spinner-ish affordance instead of a position.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// View renders the bar: title/artist on the first line, progress below.
func (m *Model) View() string {
	width := m.Width()
	if width <= 0 {
		return ""
	}
	t := styles.T()

	if m.track == nil {
		return render.TruncateAndPad("", width)
	}

	title := t.S().Title.Render(render.Truncate(m.track.Name, width/2))
	artist := t.S().Muted.Render(render.Truncate(m.track.PrimaryArtist(), width/3))
	info := render.Row(title, artist, width)

	var progress string
	if m.loading {
		progress = t.S().Subtle.Render(render.Center("loading…", width))
	} else {
		progress = RenderProgressBar(m.position, m.track.Duration(), width, m.playing)
	}

	return lipgloss.JoinVertical(lipgloss.Left, info, progress)
}

// RenderProgressBar renders a block-style progress bar.
// Format: ▶  1:23  ▓▓▓▓▓░░░░░  4:56
func RenderProgressBar(position, duration time.Duration, width int, playing bool) string {
	status := icons.Current().Play
	if !playing {
		status = icons.Current().Pause
	}

	posStr := render.FormatDuration(position)
	durStr := render.FormatDuration(duration)

	fixedWidth := lipgloss.Width(status) + 2 + lipgloss.Width(posStr) + 2 + 2 + lipgloss.Width(durStr)
	barWidth := width - fixedWidth

	if barWidth < 3 {
		// Too narrow for a bar, just show times
		return status + "  " + posStr + " / " + durStr
	}

	var ratio float64
	if duration > 0 {
		ratio = float64(position) / float64(duration)
	}
	ratio = min(ratio, 1)
	filled := min(int(float64(barWidth)*ratio), barWidth)

	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, barWidth-filled)

	return status + "  " + posStr + "  " + bar + "  " + durStr
}
