package catalog

import (
	"strings"
	"testing"
	"time"
)

const sampleJSON = `[
  {
    "id": "4uLU6hMCjMI75M1A2tKUQC",
    "name": "Never Gonna Give You Up",
    "artists": ["Rick Astley"],
    "album": {
      "name": "Whenever You Need Somebody",
      "images": [
        {"url": "https://covers.example/640.jpg", "width": 640, "height": 640},
        {"url": "https://covers.example/300.jpg", "width": 300, "height": 300}
      ]
    },
    "duration_ms": 213573,
    "youtube_id": "dQw4w9WgXcQ",
    "lyrics_offset_ms": -500
  },
  {
    "id": "7tFiyTwD0nx5a1eklYtX2J",
    "name": "Bohemian Rhapsody",
    "artists": ["Queen"],
    "album": {"name": "A Night at the Opera", "images": []},
    "duration_ms": 354320
  }
]`

func TestLoadReader(t *testing.T) {
	c, err := LoadReader(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("LoadReader error: %v", err)
	}

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	tr := c.Track(0)
	if tr.Name != "Never Gonna Give You Up" {
		t.Errorf("Name = %q", tr.Name)
	}
	if tr.PrimaryArtist() != "Rick Astley" {
		t.Errorf("PrimaryArtist() = %q", tr.PrimaryArtist())
	}
	if tr.Duration() != 213573*time.Millisecond {
		t.Errorf("Duration() = %v", tr.Duration())
	}
	if tr.Offset() != -500*time.Millisecond {
		t.Errorf("Offset() = %v", tr.Offset())
	}
	if tr.BestImage() != "https://covers.example/640.jpg" {
		t.Errorf("BestImage() = %q", tr.BestImage())
	}

	// Track without images falls back to empty cover
	if got := c.Track(1).BestImage(); got != "" {
		t.Errorf("BestImage() = %q, want empty", got)
	}
}

func TestLoadReader_IndexOf(t *testing.T) {
	c, err := LoadReader(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}

	if got := c.IndexOf("7tFiyTwD0nx5a1eklYtX2J"); got != 1 {
		t.Errorf("IndexOf(known) = %d, want 1", got)
	}
	if got := c.IndexOf("nope"); got != -1 {
		t.Errorf("IndexOf(unknown) = %d, want -1", got)
	}
}

func TestLoadReader_Empty(t *testing.T) {
	if _, err := LoadReader(strings.NewReader(`[]`)); err == nil {
		t.Error("expected error for empty catalog")
	}
}

func TestLoadReader_DuplicateID(t *testing.T) {
	dup := `[
	  {"id": "a", "name": "one", "artists": [], "album": {"name": "", "images": []}, "duration_ms": 1000},
	  {"id": "a", "name": "two", "artists": [], "album": {"name": "", "images": []}, "duration_ms": 1000}
	]`
	if _, err := LoadReader(strings.NewReader(dup)); err == nil {
		t.Error("expected error for duplicate track id")
	}
}

func TestLoadReader_MissingID(t *testing.T) {
	missing := `[{"name": "anon", "artists": [], "album": {"name": "", "images": []}, "duration_ms": 1000}]`
	if _, err := LoadReader(strings.NewReader(missing)); err == nil {
		t.Error("expected error for missing track id")
	}
}

func TestValid(t *testing.T) {
	c, err := LoadReader(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		idx  int
		want bool
	}{
		{-1, false},
		{0, true},
		{1, true},
		{2, false},
	}
	for _, tc := range cases {
		if got := c.Valid(tc.idx); got != tc.want {
			t.Errorf("Valid(%d) = %v, want %v", tc.idx, got, tc.want)
		}
	}
}
