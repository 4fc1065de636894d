// Package session controls a remote playback session (a Spotify
// Connect-style device) over HTTP. Every call is asynchronous from the
// player's point of view and fallible; auth expiry is a distinct condition
// so the caller can re-authenticate instead of retrying.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrAuthExpired means the session token was rejected and could not be
// refreshed. The caller must run the re-authentication flow; retrying the
// same call is pointless.
var ErrAuthExpired = errors.New("session auth expired")

// State is the remote device's view of playback, pushed back on request.
type State struct {
	TrackID    string `json:"track_id"`
	PositionMS int64  `json:"position_ms"`
	DurationMS int64  `json:"duration_ms"`
	Paused     bool   `json:"paused"`
}

// Position returns the reported position as a duration.
func (s *State) Position() time.Duration {
	return time.Duration(s.PositionMS) * time.Millisecond
}

// Client is a remote session API client. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// New creates a client for the given session API base URL.
func New(baseURL, accessToken, refreshToken string) *Client {
	return &Client{
		baseURL:      baseURL,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		httpClient: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

// Play starts playback of the given ordered track list at startIndex.
func (c *Client) Play(ctx context.Context, trackIDs []string, startIndex int) error {
	body := map[string]any{
		"ids":    trackIDs,
		"offset": startIndex,
	}
	return c.call(ctx, http.MethodPut, "/player/play", body, nil)
}

// Pause pauses the remote device.
func (c *Client) Pause(ctx context.Context) error {
	return c.call(ctx, http.MethodPut, "/player/pause", nil, nil)
}

// Resume resumes paused playback.
func (c *Client) Resume(ctx context.Context) error {
	return c.call(ctx, http.MethodPut, "/player/resume", nil, nil)
}

// Seek moves the remote position.
func (c *Client) Seek(ctx context.Context, pos time.Duration) error {
	body := map[string]any{"position_ms": pos.Milliseconds()}
	return c.call(ctx, http.MethodPut, "/player/seek", body, nil)
}

// CurrentState fetches the device's playback state.
func (c *Client) CurrentState(ctx context.Context) (*State, error) {
	var st State
	if err := c.call(ctx, http.MethodGet, "/player/state", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// call performs one API request, refreshing the access token once on a 401
// before giving up with ErrAuthExpired.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	err := c.doOnce(ctx, method, path, body, out)
	if !errors.Is(err, errUnauthorized) {
		return err
	}

	if refreshErr := c.refresh(ctx); refreshErr != nil {
		return ErrAuthExpired
	}

	err = c.doOnce(ctx, method, path, body, out)
	if errors.Is(err, errUnauthorized) {
		return ErrAuthExpired
	}
	return err
}

var errUnauthorized = errors.New("unauthorized")

func (c *Client) doOnce(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("session request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return errUnauthorized
	case resp.StatusCode >= 400:
		return fmt.Errorf("session %s %s: status %s", method, path, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode state: %w", err)
		}
	}
	return nil
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// refresh exchanges the refresh token for a new access token.
func (c *Client) refresh(ctx context.Context) error {
	c.mu.Lock()
	rt := c.refreshToken
	c.mu.Unlock()
	if rt == "" {
		return errors.New("no refresh token")
	}

	raw, err := json.Marshal(map[string]string{"refresh_token": rt})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token refresh: status %s", resp.Status)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return err
	}
	if tok.AccessToken == "" {
		return errors.New("token refresh: empty access token")
	}

	c.mu.Lock()
	c.accessToken = tok.AccessToken
	c.mu.Unlock()
	return nil
}
