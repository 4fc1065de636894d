package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newLocalStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.SetCacheDir(t.TempDir())
	return s, dir
}

func TestNew_RequiresSomeBackend(t *testing.T) {
	if _, err := New("", ""); err == nil {
		t.Error("New with neither dir nor mirror should fail")
	}
}

func TestStore_Audio_Local(t *testing.T) {
	s, dir := newLocalStore(t)
	writeFile(t, filepath.Join(dir, "audio", "tr-1.mp3"), "mp3bytes")

	name, rsc, err := s.Audio(context.Background(), "tr-1")
	if err != nil {
		t.Fatalf("Audio: %v", err)
	}
	defer rsc.Close()

	if filepath.Ext(name) != ".mp3" {
		t.Errorf("name = %q, want .mp3 path", name)
	}
	data, _ := io.ReadAll(rsc)
	if string(data) != "mp3bytes" {
		t.Errorf("audio content = %q", data)
	}
}

func TestStore_Audio_MissingIsNotFound(t *testing.T) {
	s, _ := newLocalStore(t)

	_, _, err := s.Audio(context.Background(), "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Audio(absent) error = %v, want ErrNotFound", err)
	}
}

func TestStore_Audio_MirrorDownloadCached(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/tr-1.mp3" {
			http.NotFound(w, r)
			return
		}
		requests++
		io.WriteString(w, "streamed")
	}))
	defer srv.Close()

	s, err := New("", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	s.SetCacheDir(t.TempDir())

	for i := range 2 {
		name, rsc, err := s.Audio(context.Background(), "tr-1")
		if err != nil {
			t.Fatalf("Audio (call %d): %v", i, err)
		}
		data, _ := io.ReadAll(rsc)
		rsc.Close()
		if string(data) != "streamed" {
			t.Errorf("audio content = %q", data)
		}
		if name == "" {
			t.Error("empty cache path")
		}
	}

	if requests != 1 {
		t.Errorf("mirror hit %d times, want 1 (second read from cache)", requests)
	}
}

func TestStore_Cover_LocalBeatsMirror(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("mirror should not be consulted when the asset exists locally")
	}))
	defer srv.Close()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "covers", "tr-1.jpg"), "jpegbytes")
	s, err := New(dir, srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	s.SetCacheDir(t.TempDir())

	data, err := s.Cover(context.Background(), "tr-1")
	if err != nil {
		t.Fatalf("Cover: %v", err)
	}
	if string(data) != "jpegbytes" {
		t.Errorf("cover = %q", data)
	}
}

func TestStore_Lyrics_Local(t *testing.T) {
	s, dir := newLocalStore(t)
	writeFile(t, filepath.Join(dir, "lyrics", "tr-1.json"), `{"trackId":"tr-1"}`)

	rc, err := s.Lyrics(context.Background(), "tr-1")
	if err != nil {
		t.Fatalf("Lyrics: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if !strings.Contains(string(data), "tr-1") {
		t.Errorf("lyrics = %q", data)
	}
}

func TestStore_Lyrics_MirrorNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	s, err := New("", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	s.SetCacheDir(t.TempDir())

	_, err = s.Lyrics(context.Background(), "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Lyrics(absent) error = %v, want ErrNotFound", err)
	}
}

func TestStore_TransportFailureIsNotNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s, err := New("", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	s.SetCacheDir(t.TempDir())

	_, cerr := s.Cover(context.Background(), "tr-1")
	if cerr == nil || errors.Is(cerr, ErrNotFound) {
		t.Errorf("Cover error = %v, want transport error distinct from ErrNotFound", cerr)
	}
}

func TestStore_FetchURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/art.png" {
			io.WriteString(w, "pngbytes")
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s, err := New("", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	s.SetCacheDir(t.TempDir())

	data, err := s.FetchURL(context.Background(), srv.URL+"/art.png")
	if err != nil {
		t.Fatalf("FetchURL: %v", err)
	}
	if string(data) != "pngbytes" {
		t.Errorf("FetchURL = %q", data)
	}

	if _, err := s.FetchURL(context.Background(), srv.URL+"/missing.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FetchURL(missing) error = %v, want ErrNotFound", err)
	}
}
