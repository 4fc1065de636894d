// Package catalog loads and holds the immutable track list the player runs on.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Image is one cover rendition. The catalog lists images by descending
// resolution, so Images[0] is always the best quality available.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Album holds album metadata for a track.
type Album struct {
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Track is one playable entry. Tracks are immutable once loaded.
type Track struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Artists      []string `json:"artists"`
	Album        Album    `json:"album"`
	DurationMS   int64    `json:"duration_ms"`
	VideoID      string   `json:"youtube_id,omitempty"`
	LyricsOffset int64    `json:"lyrics_offset_ms,omitempty"`
	AudioURL     string   `json:"audio_url,omitempty"`
}

// Duration returns the track length.
func (t *Track) Duration() time.Duration {
	return time.Duration(t.DurationMS) * time.Millisecond
}

// PrimaryArtist returns the first listed artist, or empty if none.
func (t *Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// Offset returns the manual lyrics offset for the track. Signed: a positive
// offset shifts lyrics earlier relative to the audio.
func (t *Track) Offset() time.Duration {
	return time.Duration(t.LyricsOffset) * time.Millisecond
}

// BestImage returns the highest-resolution cover URL, or empty if the track
// has no cover art.
func (t *Track) BestImage() string {
	if len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

// Catalog is the ordered, immutable track list for a session.
// It is loaded exactly once; navigation assumes Len() >= 1, which Load
// enforces so wrap-around arithmetic is total everywhere downstream.
type Catalog struct {
	tracks []Track
	byID   map[string]int
}

// Load reads a catalog from a JSON file.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadReader(f)
}

// LoadReader reads a catalog from a JSON array of tracks.
func LoadReader(r io.Reader) (*Catalog, error) {
	var tracks []Track
	if err := json.NewDecoder(r).Decode(&tracks); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	byID := make(map[string]int, len(tracks))
	for i := range tracks {
		t := &tracks[i]
		if t.ID == "" {
			return nil, fmt.Errorf("catalog track %d has no id", i)
		}
		if prev, ok := byID[t.ID]; ok {
			return nil, fmt.Errorf("catalog tracks %d and %d share id %q", prev, i, t.ID)
		}
		byID[t.ID] = i
	}

	return &Catalog{tracks: tracks, byID: byID}, nil
}

// Len returns the number of tracks.
func (c *Catalog) Len() int {
	return len(c.tracks)
}

// Track returns the track at index i. Panics on an out-of-range index; use
// Valid to check first when the index comes from untrusted input.
func (c *Catalog) Track(i int) *Track {
	return &c.tracks[i]
}

// Valid reports whether i is a valid track index.
func (c *Catalog) Valid(i int) bool {
	return i >= 0 && i < len(c.tracks)
}

// IndexOf returns the index of the track with the given id, or -1.
func (c *Catalog) IndexOf(id string) int {
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}

// Tracks returns a copy of the track list.
func (c *Catalog) Tracks() []Track {
	out := make([]Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}
