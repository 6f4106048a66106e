// Package client talks to a running purrwatch daemon over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/purrwatch/internal/engine"
	"github.com/blackwell-systems/purrwatch/internal/server"
	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

// Client calls the daemon API rooted at BaseURL.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a Client for addr, which may be host:port or a full URL.
func New(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError is a non-2xx response from the daemon.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daemon returned %d: %s", e.Status, e.Message)
}

// Status returns the pet state.
func (c *Client) Status(ctx context.Context) (tracker.PetState, error) {
	var out tracker.PetState
	err := c.call(ctx, http.MethodGet, "/api/status", nil, &out)
	return out, err
}

// Snapshot returns today's stats.
func (c *Client) Snapshot(ctx context.Context) (tracker.StatsSnapshot, error) {
	var out tracker.StatsSnapshot
	err := c.call(ctx, http.MethodGet, "/api/snapshot", nil, &out)
	return out, err
}

// Daily returns every stored day plus the weekly progress.
func (c *Client) Daily(ctx context.Context) (engine.DailyStatsResponse, error) {
	var out engine.DailyStatsResponse
	err := c.call(ctx, http.MethodGet, "/api/daily", nil, &out)
	return out, err
}

// History returns up to days records, most recent first. Zero uses the daemon default.
func (c *Client) History(ctx context.Context, days int) ([]tracker.DayRecord, error) {
	path := "/api/history"
	if days != 0 {
		path += "?" + url.Values{"days": {strconv.Itoa(days)}}.Encode()
	}
	var out []tracker.DayRecord
	err := c.call(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Settings returns the screen-time goal and category lists.
func (c *Client) Settings(ctx context.Context) (tracker.Settings, error) {
	var out tracker.Settings
	err := c.call(ctx, http.MethodGet, "/api/settings", nil, &out)
	return out, err
}

// UpdateSettings applies a partial settings change.
func (c *Client) UpdateSettings(ctx context.Context, u tracker.SettingsUpdate) error {
	return c.call(ctx, http.MethodPatch, "/api/settings", u, nil)
}

// SetCategories replaces both category lists.
func (c *Client) SetCategories(ctx context.Context, lists tracker.CategoryLists) error {
	return c.call(ctx, http.MethodPut, "/api/categories", lists, nil)
}

// UpdatePopupThresholds changes the popup rules until the daemon restarts.
func (c *Client) UpdatePopupThresholds(ctx context.Context, u tracker.PopupUpdate) error {
	return c.call(ctx, http.MethodPatch, "/api/popup/thresholds", u, nil)
}

// Mute suppresses popups and returns when the mute ends.
func (c *Client) Mute(ctx context.Context) (engine.MuteResult, error) {
	var out engine.MuteResult
	err := c.call(ctx, http.MethodPost, "/api/mute", nil, &out)
	return out, err
}

// DismissPopup restarts the popup cooldown.
func (c *Client) DismissPopup(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/api/popup/dismissed", nil, nil)
}

// CheckThresholds runs the popup rules now.
func (c *Client) CheckThresholds(ctx context.Context) (tracker.Decision, error) {
	var out tracker.Decision
	err := c.call(ctx, http.MethodPost, "/api/debug/check-thresholds", nil, &out)
	return out, err
}

// MidnightReset forces a day rollover.
func (c *Client) MidnightReset(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/api/debug/midnight-reset", nil, nil)
}

// Event posts a browsing event such as "tab_activated".
func (c *Client) Event(ctx context.Context, eventType string, tabID int, rawURL string) error {
	return c.call(ctx, http.MethodPost, "/api/events", server.Message{
		Type:  eventType,
		TabID: tabID,
		URL:   rawURL,
	}, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("contacting daemon at %s (is `purrwatch serve` running?): %w", c.BaseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
