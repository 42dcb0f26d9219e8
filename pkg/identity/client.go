package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoSession is returned when the provider does not recognise the session.
var ErrNoSession = errors.New("no active session")

type Client struct {
	HTTPClient *http.Client
	Endpoint   string
	ProjectID  string
}

type Account struct {
	ID       string `json:"$id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	ImageURL string `json:"imageUrl,omitempty"`
	Prefs    struct {
		ImageURL string `json:"imageUrl"`
	} `json:"prefs"`
}

// Avatar prefers the top-level image and falls back to the profile preference.
func (a Account) Avatar() string {
	if a.ImageURL != "" {
		return a.ImageURL
	}
	return a.Prefs.ImageURL
}

// GetAccount returns the account that owns sessionID.
func (c Client) GetAccount(ctx context.Context, sessionID string) (*Account, error) {
	var a Account
	if _, err := c.doJSON(ctx, http.MethodGet, "/account", sessionID, nil, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, ErrNoSession
	}
	return &a, nil
}

// DeleteSession ends the current provider session.
func (c Client) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/account/sessions/current", sessionID, nil, nil)
	return err
}

func (c Client) doJSON(ctx context.Context, method, path, sessionID string, reqBody any, respBody any) (int, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if c.Endpoint == "" {
		return 0, fmt.Errorf("missing auth endpoint")
	}
	if sessionID == "" {
		return 0, ErrNoSession
	}

	var buf bytes.Buffer
	if reqBody != nil {
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return 0, err
		}
	}

	u := strings.TrimRight(c.Endpoint, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session", sessionID)
	if c.ProjectID != "" {
		req.Header.Set("X-Project", c.ProjectID)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	b, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return resp.StatusCode, readErr
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, ErrNoSession
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(b) > 0 {
			return resp.StatusCode, fmt.Errorf("auth provider error: status=%d body=%s", resp.StatusCode, string(b))
		}
		return resp.StatusCode, fmt.Errorf("auth provider error: status=%d", resp.StatusCode)
	}

	if respBody != nil && len(b) > 0 {
		if err := json.Unmarshal(b, respBody); err != nil {
			return resp.StatusCode, fmt.Errorf("decode auth provider response: %w body=%s", err, string(b))
		}
	}

	return resp.StatusCode, nil
}
