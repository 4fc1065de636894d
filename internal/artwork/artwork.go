// Package artwork turns cover images into terminal cells and an accent
// colour for the active lyric line.
package artwork

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/charmbracelet/lipgloss"
	"github.com/nfnt/resize"

	"github.com/mferal/undertow/internal/catalog"
	"github.com/mferal/undertow/internal/media"
)

// DefaultAccent is used when no cover is available or extraction fails.
const DefaultAccent = "#8BA4E8"

// Load fetches and decodes the cover for a track. The media store is
// consulted first; a cover URL from the catalog is the fallback. A missing
// cover is reported as media.ErrNotFound so the caller can render a
// placeholder.
func Load(ctx context.Context, store *media.Store, track *catalog.Track) (image.Image, error) {
	var data []byte
	var err error

	if store != nil {
		data, err = store.Cover(ctx, track.ID)
		if err != nil && !errors.Is(err, media.ErrNotFound) {
			return nil, err
		}
	}

	if data == nil {
		url := track.BestImage()
		if url == "" || store == nil {
			return nil, fmt.Errorf("cover for %s: %w", track.ID, media.ErrNotFound)
		}
		data, err = store.FetchURL(ctx, url)
		if err != nil {
			return nil, err
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover for %s: %w", track.ID, err)
	}
	return img, nil
}

// Accent extracts a dominant colour usable as a highlight. Dark or washed
// out candidates are skipped; anything going wrong falls back to
// DefaultAccent rather than erroring.
func Accent(img image.Image) string {
	if img == nil {
		return DefaultAccent
	}

	extracted, err := prominentcolor.KmeansWithAll(3, img, prominentcolor.ArgumentDefault, prominentcolor.DefaultSize, nil)
	if err != nil || len(extracted) == 0 {
		return DefaultAccent
	}

	best := ""
	bestScore := -1.0
	for _, c := range extracted {
		r := float64(c.Color.R) / 255.0
		g := float64(c.Color.G) / 255.0
		b := float64(c.Color.B) / 255.0

		brightness := math.Max(math.Max(r, g), b)
		low := math.Min(math.Min(r, g), b)

		var sat float64
		if brightness > 0 {
			sat = (brightness - low) / brightness
		}

		if brightness < 0.3 {
			continue
		}
		score := sat * (1.0 - math.Abs(brightness-0.6))
		if score > bestScore {
			bestScore = score
			best = fmt.Sprintf("#%02X%02X%02X", c.Color.R, c.Color.G, c.Color.B)
		}
	}

	if best == "" {
		return DefaultAccent
	}
	return best
}

// Thumbnail renders the image as half-block cells, two pixel rows per
// terminal row.
func Thumbnail(img image.Image, width, height int) []string {
	if img == nil || width < 2 || height < 1 {
		return nil
	}

	resized := resize.Resize(uint(width), uint(height*2), img, resize.Lanczos3)
	bounds := resized.Bounds()

	lines := make([]string, height)
	for y := range height {
		var line strings.Builder
		topY := y * 2
		bottomY := topY + 1

		for x := range bounds.Dx() {
			topR, topG, topB, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+topY).RGBA()

			bottomR, bottomG, bottomB := topR, topG, topB
			if bottomY < bounds.Dy() {
				bottomR, bottomG, bottomB, _ = resized.At(bounds.Min.X+x, bounds.Min.Y+bottomY).RGBA()
			}

			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", topR>>8, topG>>8, topB>>8))).
				Background(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", bottomR>>8, bottomG>>8, bottomB>>8)))

			line.WriteString(style.Render("▀"))
		}
		lines[y] = line.String()
	}

	return lines
}

// Placeholder returns a uniform block used when no cover could be loaded.
func Placeholder(width, height int) []string {
	if width < 1 || height < 1 {
		return nil
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	row := style.Render(strings.Repeat("░", width))
	lines := make([]string, height)
	for i := range lines {
		lines[i] = row
	}
	return lines
}
