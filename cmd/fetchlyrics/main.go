// fetchlyrics fills the lyrics cache for every track in the catalog, so the
// player never has to hit the network mid-session. Already cached tracks are
// skipped; a failed lookup is logged and the batch keeps going.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mferal/undertow/internal/catalog"
	"github.com/mferal/undertow/internal/config"
	"github.com/mferal/undertow/internal/lrclib"
	"github.com/mferal/undertow/internal/lyrics"
	"github.com/mferal/undertow/internal/media"
)

// Delay between provider lookups. lrclib is a free community service.
const politeDelay = 500 * time.Millisecond

func main() {
	catalogPath := flag.String("catalog", "", "catalog JSON path (default: from config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	path := *catalogPath
	if path == "" {
		path = cfg.CatalogPath
	}
	if path == "" {
		log.Fatal("no catalog: pass -catalog or set catalog in config.toml")
	}

	cat, err := catalog.Load(path)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	var store *media.Store
	if cfg.Media.Dir != "" || cfg.Media.Mirror != "" {
		store, err = media.New(cfg.Media.Dir, cfg.Media.Mirror)
		if err != nil {
			log.Fatalf("open media store: %v", err)
		}
	}

	src := lyrics.NewSource(store, lrclib.New())
	ctx := context.Background()

	var fetched, cached, missing, failed int
	for _, track := range cat.Tracks() {
		if src.Cached(track.ID) {
			cached++
			continue
		}

		res := src.Fetch(ctx, lyrics.TrackInfo{
			ID:       track.ID,
			Name:     track.Name,
			Artist:   track.PrimaryArtist(),
			Duration: track.Duration(),
		})

		switch {
		case res.Err != nil:
			failed++
			log.Printf("%s (%s): %v", track.Name, track.ID, res.Err)
		case res.Origin == "provider":
			fetched++
			log.Printf("%s: fetched (%d lines)", track.Name, len(res.Document.Lines))
		case res.Origin == "local", res.Origin == "cache":
			cached++
		default:
			missing++
			log.Printf("%s: no lyrics found", track.Name)
		}

		time.Sleep(politeDelay)
	}

	log.Printf("done: %d fetched, %d cached, %d without lyrics, %d failed; cache is %s",
		fetched, cached, missing, failed, humanize.Bytes(uint64(src.CacheSize())))
}
