// Package lyrics provides the synced-lyrics document model, parsing, and the
// line-sync resolver that maps a playback position to the active line.
package lyrics

import "time"

// Line is a single timestamped lyric line.
type Line struct {
	Time time.Duration
	Text string
}

// Document is the synced lyrics for exactly one track. Lines are sorted
// ascending by timestamp; parsing repairs source material that is not.
// Track and artist names are denormalized for diagnostics only.
type Document struct {
	TrackID    string
	TrackName  string
	ArtistName string
	Lines      []Line
}

// Empty reports whether the document has no usable lines.
// An empty document is the "no lyrics" state, never an error.
func (d *Document) Empty() bool {
	return d == nil || len(d.Lines) == 0
}

// LineAt returns the index of the line to highlight at the given playback
// position, with the track's manual offset applied. Returns -1 when the
// document is empty.
//
// Before the first timestamp the first line is returned anyway: highlighting
// line 0 through an instrumental intro anchors the listener instead of
// showing nothing. Comparisons are >=, never equality, since polling jitter
// makes exact matches unreliable. Ties resolve to the last line at that
// timestamp.
func (d *Document) LineAt(pos, offset time.Duration) int {
	if d.Empty() {
		return -1
	}

	adjusted := pos + offset
	if adjusted < d.Lines[0].Time {
		return 0
	}

	idx := 0
	for i, line := range d.Lines {
		if line.Time <= adjusted {
			idx = i
		} else {
			break
		}
	}
	return idx
}
