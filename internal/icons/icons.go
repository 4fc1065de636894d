// Package icons holds the glyph set used by the panels. Nerd-font glyphs
// look best but render as tofu on a stock terminal font, so the set is
// selectable from config.
package icons

// Style selects which glyph set is active.
type Style string

const (
	StyleNerd    Style = "nerd"
	StyleUnicode Style = "unicode"
	StyleNone    Style = "none"
)

// Icons holds the glyphs for the active style.
type Icons struct {
	Play  string
	Pause string
	Note  string
	Line  string // active lyric line marker
}

var (
	nerdIcons = Icons{
		Play:  "", // nf-fa-play
		Pause: "", // nf-fa-pause
		Note:  "", // nf-fa-music
		Line:  "", // nf-fa-caret_right
	}

	unicodeIcons = Icons{
		Play:  "▶",
		Pause: "⏸",
		Note:  "♪",
		Line:  "▶",
	}

	noneIcons = Icons{
		Play:  ">",
		Pause: "|",
		Note:  "~",
		Line:  ">",
	}

	current = unicodeIcons
)

// Init sets the active style. Call once at startup with the config value;
// an unknown value falls back to the unicode set.
func Init(style string) {
	switch Style(style) {
	case StyleNerd:
		current = nerdIcons
	case StyleNone:
		current = noneIcons
	default:
		current = unicodeIcons
	}
}

// Current returns the active glyph set.
func Current() Icons {
	return current
}
