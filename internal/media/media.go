// Package media resolves audio streams, cover images and lyrics documents
// by track id, from a local media directory or a remote mirror. Callers can
// tell a missing asset from a transport failure and neither is fatal for
// the rest of the catalog.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// ErrNotFound reports an asset that does not exist for the track, locally
// or on the mirror. Any other error is a transport or filesystem failure.
var ErrNotFound = errors.New("media: not found")

var audioExts = []string{".mp3", ".flac", ".ogg", ".wav"}

var coverExts = []string{".jpg", ".jpeg", ".png"}

// Store serves per-track assets. Layout, both locally and on the mirror:
//
//	audio/<trackID>.<ext>
//	covers/<trackID>.<ext>
//	lyrics/<trackID>.json
type Store struct {
	dir        string
	mirror     string
	cacheDir   string
	httpClient *http.Client
}

// New creates a store over a local directory, a mirror base URL, or both.
// The local directory wins when a track exists in both places.
func New(dir, mirror string) (*Store, error) {
	if dir == "" && mirror == "" {
		return nil, errors.New("media: no local directory and no mirror configured")
	}
	cache, err := xdg.CacheFile(filepath.Join("undertow", "media"))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cache, 0o755); err != nil {
		return nil, err
	}
	return &Store{
		dir:        dir,
		mirror:     mirror,
		cacheDir:   cache,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Audio returns the track's audio stream as a seekable reader, which the
// decoder needs. Mirror downloads are staged to a cache file first; a
// cached download is reused on later calls.
func (s *Store) Audio(ctx context.Context, trackID string) (string, io.ReadSeekCloser, error) {
	if s.dir != "" {
		for _, ext := range audioExts {
			path := filepath.Join(s.dir, "audio", trackID+ext)
			f, err := os.Open(path)
			if err == nil {
				return path, f, nil
			}
			if !os.IsNotExist(err) {
				return "", nil, fmt.Errorf("open %s: %w", path, err)
			}
		}
	}

	if s.mirror == "" {
		return "", nil, fmt.Errorf("audio for %s: %w", trackID, ErrNotFound)
	}

	for _, ext := range audioExts {
		cached := filepath.Join(s.cacheDir, trackID+ext)
		if f, err := os.Open(cached); err == nil {
			return cached, f, nil
		}
	}

	for _, ext := range audioExts {
		path, err := s.download(ctx, "audio/"+trackID+ext, trackID+ext)
		if err == nil {
			f, err := os.Open(path)
			if err != nil {
				return "", nil, err
			}
			return path, f, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", nil, err
		}
	}
	return "", nil, fmt.Errorf("audio for %s: %w", trackID, ErrNotFound)
}

// Cover returns the track's cover image bytes.
func (s *Store) Cover(ctx context.Context, trackID string) ([]byte, error) {
	if s.dir != "" {
		for _, ext := range coverExts {
			data, err := os.ReadFile(filepath.Join(s.dir, "covers", trackID+ext))
			if err == nil {
				return data, nil
			}
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	if s.mirror == "" {
		return nil, fmt.Errorf("cover for %s: %w", trackID, ErrNotFound)
	}

	for _, ext := range coverExts {
		data, err := s.fetch(ctx, "covers/"+trackID+ext)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("cover for %s: %w", trackID, ErrNotFound)
}

// Lyrics returns the track's lyrics document. Satisfies lyrics.LocalStore.
func (s *Store) Lyrics(ctx context.Context, trackID string) (io.ReadCloser, error) {
	if s.dir != "" {
		f, err := os.Open(filepath.Join(s.dir, "lyrics", trackID+".json"))
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if s.mirror == "" {
		return nil, fmt.Errorf("lyrics for %s: %w", trackID, ErrNotFound)
	}

	resp, err := s.get(ctx, "lyrics/"+trackID+".json")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// FetchURL retrieves an arbitrary asset URL, for covers referenced by the
// catalog rather than stored under the track id.
func (s *Store) FetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *Store) get(ctx context.Context, rel string) (*http.Response, error) {
	url := s.mirror + "/" + rel
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", rel, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rel, resp.StatusCode)
	}
	return resp, nil
}

func (s *Store) fetch(ctx context.Context, rel string) ([]byte, error) {
	resp, err := s.get(ctx, rel)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// download streams a mirror asset to the cache, writing through a temp
// file so a torn download never shows up as a cached asset.
func (s *Store) download(ctx context.Context, rel, cacheName string) (string, error) {
	resp, err := s.get(ctx, rel)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(s.cacheDir, cacheName+".part*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("download %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	final := filepath.Join(s.cacheDir, cacheName)
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return final, nil
}

// SetCacheDir overrides the download cache location. Tests use this.
func (s *Store) SetCacheDir(dir string) {
	s.cacheDir = dir
}
