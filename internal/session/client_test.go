package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPlayAndState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/player/play":
			var body struct {
				IDs    []string `json:"ids"`
				Offset int      `json:"offset"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode play body: %v", err)
			}
			if len(body.IDs) != 3 || body.Offset != 2 {
				t.Errorf("play body = %+v", body)
			}
			w.WriteHeader(http.StatusNoContent)
		case "/player/state":
			_ = json.NewEncoder(w).Encode(State{TrackID: "c", PositionMS: 1500, Paused: false})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", "")
	if err := c.Play(context.Background(), []string{"a", "b", "c"}, 2); err != nil {
		t.Fatalf("Play error: %v", err)
	}

	st, err := c.CurrentState(context.Background())
	if err != nil {
		t.Fatalf("CurrentState error: %v", err)
	}
	if st.TrackID != "c" || st.Position() != 1500*time.Millisecond {
		t.Errorf("state = %+v", st)
	}
}

// A rejected token with a working refresh endpoint recovers transparently.
func TestTokenRefresh(t *testing.T) {
	var refreshed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			refreshed = true
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh"})
		case "/player/pause":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "stale", "refresh-me")
	if err := c.Pause(context.Background()); err != nil {
		t.Fatalf("Pause error: %v", err)
	}
	if !refreshed {
		t.Error("refresh endpoint was never hit")
	}
}

// When the refresh also fails the caller gets the distinct auth-expired
// condition, not a generic error.
func TestAuthExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			http.Error(w, "bad refresh token", http.StatusBadRequest)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "stale", "also-stale")
	err := c.Resume(context.Background())
	if !errors.Is(err, ErrAuthExpired) {
		t.Errorf("err = %v, want ErrAuthExpired", err)
	}
}

func TestGenericFailureIsNotAuthExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "device gone", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", "rt")
	err := c.Seek(context.Background(), 30*time.Second)
	if err == nil || errors.Is(err, ErrAuthExpired) {
		t.Errorf("err = %v, want generic failure", err)
	}
}
