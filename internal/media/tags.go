package media

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"

	"github.com/mferal/undertow/internal/catalog"
)

// TrackTags is the metadata embedded in an audio file.
type TrackTags struct {
	Title  string
	Artist string
	Album  string
}

// ProbeTags reads embedded metadata from an audio file. A catalog entry
// needs only an id; when name or artists are missing, the file's own tags
// fill the gap.
func ProbeTags(path string) (*TrackTags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	md, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("read tags from %s: %w", path, err)
	}
	return &TrackTags{
		Title:  md.Title(),
		Artist: md.Artist(),
		Album:  md.Album(),
	}, nil
}

// Fill returns a copy of the track with empty metadata fields replaced by
// the embedded tags. Catalog values always win over file tags.
func (tt *TrackTags) Fill(t catalog.Track) catalog.Track {
	if tt == nil {
		return t
	}
	if t.Name == "" && tt.Title != "" {
		t.Name = tt.Title
	}
	if len(t.Artists) == 0 && tt.Artist != "" {
		t.Artists = []string{tt.Artist}
	}
	if t.Album.Name == "" && tt.Album != "" {
		t.Album.Name = tt.Album
	}
	return t
}
