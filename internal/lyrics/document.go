package lyrics

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// documentJSON is the on-disk / over-the-wire document shape.
// Timestamps are integer milliseconds.
type documentJSON struct {
	TrackID    string     `json:"trackId"`
	TrackName  string     `json:"trackName"`
	ArtistName string     `json:"artistName"`
	Lines      []lineJSON `json:"lines"`
}

type lineJSON struct {
	Timestamp int64  `json:"timestamp"`
	Text      string `json:"text"`
}

// ParseDocument decodes a lyrics document from its JSON form. The ordering
// invariant is re-established on load; stored documents are not trusted to
// be sorted.
func ParseDocument(r io.Reader) (*Document, error) {
	var dj documentJSON
	if err := json.NewDecoder(r).Decode(&dj); err != nil {
		return nil, fmt.Errorf("decode lyrics document: %w", err)
	}

	doc := &Document{
		TrackID:    dj.TrackID,
		TrackName:  dj.TrackName,
		ArtistName: dj.ArtistName,
	}
	for _, l := range dj.Lines {
		if l.Text == "" {
			continue
		}
		doc.Lines = append(doc.Lines, Line{
			Time: time.Duration(l.Timestamp) * time.Millisecond,
			Text: l.Text,
		})
	}

	Repair(doc.Lines)
	return doc, nil
}

// EncodeDocument writes a document in its JSON form, timestamps in
// milliseconds, lines in ascending order.
func EncodeDocument(w io.Writer, doc *Document) error {
	dj := documentJSON{
		TrackID:    doc.TrackID,
		TrackName:  doc.TrackName,
		ArtistName: doc.ArtistName,
		Lines:      make([]lineJSON, 0, len(doc.Lines)),
	}
	for _, l := range doc.Lines {
		dj.Lines = append(dj.Lines, lineJSON{
			Timestamp: l.Time.Milliseconds(),
			Text:      l.Text,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dj); err != nil {
		return fmt.Errorf("encode lyrics document: %w", err)
	}
	return nil
}
