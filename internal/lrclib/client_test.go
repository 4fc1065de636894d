package lrclib

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get" {
			t.Errorf("path = %q, want /get", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("artist_name") != "Queen" || q.Get("track_name") != "Bohemian Rhapsody" {
			t.Errorf("unexpected query: %v", q)
		}
		if q.Get("duration") != "354" {
			t.Errorf("duration = %q, want 354", q.Get("duration"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 1, "trackName": "Bohemian Rhapsody", "artistName": "Queen", "syncedLyrics": "[00:01.00]Is this the real life"}`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL)
	res, err := c.Get(context.Background(), "Queen", "Bohemian Rhapsody", 354320*time.Millisecond)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if res.SyncedLyrics == "" {
		t.Error("expected synced lyrics")
	}
}

func TestGet_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL)
	_, err := c.Get(context.Background(), "Nobody", "Nothing", 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q, want /search", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 1}, {"id": 2}]`))
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL)
	results, err := c.Search(context.Background(), "queen")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results))
	}
}

func TestGet_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL)
	if _, err := c.Get(context.Background(), "a", "b", 0); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want generic failure", err)
	}
}
