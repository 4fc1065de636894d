package lyrics

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/mferal/undertow/internal/lrclib"
)

const appName = "undertow"

// Provider looks up synced lyrics remotely. Implemented by lrclib.Client.
type Provider interface {
	Get(ctx context.Context, artist, track string, duration time.Duration) (*lrclib.Result, error)
}

// LocalStore resolves a lyrics document shipped alongside the media files.
// Implemented by media.Store.
type LocalStore interface {
	Lyrics(ctx context.Context, trackID string) (io.ReadCloser, error)
}

// TrackInfo identifies the track a lookup is for.
type TrackInfo struct {
	ID       string
	Name     string
	Artist   string
	Duration time.Duration
}

// Source fetches lyrics with the priority order: local document, cached
// document, remote provider (cached on success). Every failure path is
// contained to the one track being looked up.
type Source struct {
	local    LocalStore
	provider Provider
	cacheDir string
}

// NewSource creates a lyrics source. local may be nil when no media store is
// configured; provider may be nil to disable network lookups.
func NewSource(local LocalStore, provider Provider) *Source {
	return &Source{
		local:    local,
		provider: provider,
		cacheDir: cacheDir(),
	}
}

func cacheDir() string {
	dir, err := xdg.CacheFile(filepath.Join(appName, "lyrics"))
	if err != nil {
		return ""
	}
	return dir
}

// FetchResult is the outcome of one lookup.
type FetchResult struct {
	Document *Document
	Origin   string // "local", "cache", "provider", or "none"
	Err      error  // set when a lookup failed; Document is still nil-safe
}

// Fetch retrieves lyrics for a track. Never returns a nil Document pointer
// check hazard to callers: on any failure the result carries Origin "none"
// and downstream code renders the no-lyrics state.
func (s *Source) Fetch(ctx context.Context, track TrackInfo) FetchResult {
	if doc := s.fromLocal(ctx, track.ID); doc != nil && !doc.Empty() {
		return FetchResult{Document: doc, Origin: "local"}
	}

	if doc := s.fromCache(track.ID); doc != nil && !doc.Empty() {
		return FetchResult{Document: doc, Origin: "cache"}
	}

	if s.provider == nil || track.Artist == "" || track.Name == "" {
		return FetchResult{Origin: "none"}
	}
	return s.fromProvider(ctx, track)
}

// Cached reports whether a document for the track is already in the cache.
func (s *Source) Cached(trackID string) bool {
	if s.cacheDir == "" {
		return false
	}
	_, err := os.Stat(s.cachePath(trackID))
	return err == nil
}

func (s *Source) fromLocal(ctx context.Context, trackID string) *Document {
	if s.local == nil {
		return nil
	}
	rc, err := s.local.Lyrics(ctx, trackID)
	if err != nil {
		return nil
	}
	defer rc.Close()

	doc, err := ParseDocument(rc)
	if err != nil {
		log.Printf("lyrics: bad local document for %s: %v", trackID, err)
		return nil
	}
	return doc
}

func (s *Source) fromCache(trackID string) *Document {
	if s.cacheDir == "" {
		return nil
	}
	f, err := os.Open(s.cachePath(trackID))
	if err != nil {
		return nil
	}
	defer f.Close()

	doc, err := ParseDocument(f)
	if err != nil {
		// Corrupt cache entry: discard so the next lookup refetches.
		log.Printf("lyrics: corrupt cache entry for %s: %v", trackID, err)
		_ = os.Remove(s.cachePath(trackID))
		return nil
	}
	return doc
}

func (s *Source) fromProvider(ctx context.Context, track TrackInfo) FetchResult {
	res, err := s.provider.Get(ctx, track.Artist, track.Name, track.Duration)
	if err != nil {
		if errors.Is(err, lrclib.ErrNotFound) {
			return FetchResult{Origin: "none"}
		}
		return FetchResult{Origin: "none", Err: err}
	}
	if res.SyncedLyrics == "" {
		return FetchResult{Origin: "none"}
	}

	doc, err := parseSynced(res.SyncedLyrics)
	if err != nil || doc.Empty() {
		return FetchResult{Origin: "none", Err: err}
	}
	doc.TrackID = track.ID
	doc.TrackName = track.Name
	doc.ArtistName = track.Artist

	if err := s.SaveToCache(doc); err != nil {
		log.Printf("lyrics: cache write for %s failed: %v", track.ID, err)
	}
	return FetchResult{Document: doc, Origin: "provider"}
}

func parseSynced(lrc string) (*Document, error) {
	return ParseLRC(strings.NewReader(lrc))
}

// SaveToCache stores a document under the track's cache path.
func (s *Source) SaveToCache(doc *Document) error {
	if s.cacheDir == "" || doc == nil || doc.TrackID == "" {
		return nil
	}
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return err
	}

	path := s.cachePath(doc.TrackID)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDocument(f, doc); err != nil {
		f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

// CacheSize returns the total byte size of the lyrics cache.
func (s *Source) CacheSize() int64 {
	if s.cacheDir == "" {
		return 0
	}
	var total int64
	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		return 0
	}
	for _, e := range entries {
		if info, err := e.Info(); err == nil {
			total += info.Size()
		}
	}
	return total
}

func (s *Source) cachePath(trackID string) string {
	return filepath.Join(s.cacheDir, trackID+".json")
}

// SetCacheDir overrides the cache location. Used by tests and by the
// fetchlyrics tool when writing into a project-local data directory.
func (s *Source) SetCacheDir(dir string) {
	s.cacheDir = dir
}
