package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette and pre-built styles for the interface.
// The accent color follows the current track's cover art.
type Theme struct {
	Accent    lipgloss.Color // active lyric line, playing indicator
	Secondary lipgloss.Color // gradient endpoint

	// Text hierarchy (most to least prominent)
	FgBase   lipgloss.Color
	FgMuted  lipgloss.Color
	FgSubtle lipgloss.Color

	// Status colors
	Error   lipgloss.Color
	Warning lipgloss.Color

	styles *Styles
}

// Styles contains pre-built lipgloss styles for common UI patterns.
type Styles struct {
	Base       lipgloss.Style // Default text
	Muted      lipgloss.Style // Dimmed text
	Subtle     lipgloss.Style // Very dim text
	Title      lipgloss.Style // Bold, bright
	ActiveLine lipgloss.Style // Currently sung lyric line
	Playing    lipgloss.Style // Currently playing track entry
	Error      lipgloss.Style
	Warning    lipgloss.Style
}

var defaultTheme = Theme{
	Accent:    lipgloss.Color("#8BA4E8"),
	Secondary: lipgloss.Color("#E8A4C8"),

	FgBase:   lipgloss.Color("#c0c0c0"),
	FgMuted:  lipgloss.Color("#808080"),
	FgSubtle: lipgloss.Color("#585858"),

	Error:   lipgloss.Color("#ff5555"),
	Warning: lipgloss.Color("#f1a208"),
}

// T returns the active theme.
func T() *Theme {
	return &defaultTheme
}

// SetAccent retints the theme, typically from the cover art of the track
// that just started. An empty value resets nothing.
func SetAccent(hex string) {
	if hex == "" {
		return
	}
	defaultTheme.Accent = lipgloss.Color(hex)
	defaultTheme.styles = nil
}

// S returns the pre-built styles for this theme.
func (t *Theme) S() *Styles {
	if t.styles == nil {
		t.styles = t.buildStyles()
	}
	return t.styles
}

func (t *Theme) buildStyles() *Styles {
	base := lipgloss.NewStyle().Foreground(t.FgBase)

	return &Styles{
		Base:   base,
		Muted:  lipgloss.NewStyle().Foreground(t.FgMuted),
		Subtle: lipgloss.NewStyle().Foreground(t.FgSubtle),
		Title:  base.Bold(true),
		ActiveLine: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true),
		Playing: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true),
		Error:   lipgloss.NewStyle().Foreground(t.Error),
		Warning: lipgloss.NewStyle().Foreground(t.Warning),
	}
}
