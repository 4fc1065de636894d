package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mferal/undertow/internal/catalog"
)

func TestProbeTags_NotAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not an audio file"), 0o644))

	_, err := ProbeTags(path)
	require.Error(t, err)
}

func TestProbeTags_MissingFile(t *testing.T) {
	_, err := ProbeTags(filepath.Join(t.TempDir(), "missing.mp3"))
	require.Error(t, err)
}

func TestTrackTags_Fill(t *testing.T) {
	tags := &TrackTags{Title: "Driftwood", Artist: "Mareline", Album: "Low Tide"}

	tests := []struct {
		name       string
		track      catalog.Track
		wantName   string
		wantArtist string
		wantAlbum  string
	}{
		{
			name:       "empty track takes all tags",
			track:      catalog.Track{ID: "tr-1"},
			wantName:   "Driftwood",
			wantArtist: "Mareline",
			wantAlbum:  "Low Tide",
		},
		{
			name: "catalog values win",
			track: catalog.Track{
				ID:      "tr-2",
				Name:    "Driftwood (live)",
				Artists: []string{"Mareline", "Koto"},
				Album:   catalog.Album{Name: "Live at the Pier"},
			},
			wantName:   "Driftwood (live)",
			wantArtist: "Mareline",
			wantAlbum:  "Live at the Pier",
		},
		{
			name:       "partial fill",
			track:      catalog.Track{ID: "tr-3", Name: "Driftwood"},
			wantName:   "Driftwood",
			wantArtist: "Mareline",
			wantAlbum:  "Low Tide",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tags.Fill(tt.track)
			require.Equal(t, tt.wantName, got.Name)
			require.Equal(t, tt.wantArtist, got.PrimaryArtist())
			require.Equal(t, tt.wantAlbum, got.Album.Name)
		})
	}
}

func TestTrackTags_FillNil(t *testing.T) {
	var tags *TrackTags
	track := catalog.Track{ID: "tr-1", Name: "Driftwood"}
	require.Equal(t, track, tags.Fill(track))
}
