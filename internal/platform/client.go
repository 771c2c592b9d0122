// Package platform is the typed client for the remote personal-finance
// backend. All requests and responses are JSON; every call attaches the
// session's bearer token and retries exactly once after a token refresh
// on HTTP 401.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"moneta/internal/session"
)

// ErrAuthExpired is returned when the access token was rejected and the
// refresh token could not mint a new one. The local session is cleared
// before this error propagates.
var ErrAuthExpired = errors.New("session expired")

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status   int
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d for %s", e.Status, e.Endpoint)
	}
	return fmt.Sprintf("backend returned %d for %s: %s", e.Status, e.Endpoint, e.Message)
}

// Client talks to the backend services. Safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *session.Store
}

// NewClient creates a backend client. The session store supplies the
// bearer token and receives refreshed tokens.
func NewClient(baseURL string, sessions *session.Store) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 15 * time.Second},
		sessions: sessions,
	}
}

// do executes an authenticated JSON request. A nil body sends no
// payload; a non-nil out decodes the response body into it.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	sess, err := c.sessions.Current()
	if err != nil {
		return err
	}

	status, data, err := c.send(ctx, method, path, sess.AccessToken, body)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		sess, err = c.refresh(ctx, sess)
		if err != nil {
			return err
		}
		status, data, err = c.send(ctx, method, path, sess.AccessToken, body)
		if err != nil {
			return err
		}
	}

	if status < 200 || status > 299 {
		return &APIError{Status: status, Endpoint: path, Message: errorMessage(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, token string, body any) (int, []byte, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s request: %w", path, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s response: %w", path, err)
	}
	return resp.StatusCode, data, nil
}

// refresh exchanges the refresh token for a new access token. A rejected
// refresh clears the local session.
func (c *Client) refresh(ctx context.Context, sess session.Session) (session.Session, error) {
	body := refreshRequest{RefreshToken: sess.RefreshToken}
	status, data, err := c.send(ctx, http.MethodPost, "/users/auth/refresh", "", body)
	if err != nil {
		return session.Session{}, err
	}
	if status < 200 || status > 299 {
		slog.WarnContext(ctx, "Token refresh rejected, clearing session", "status", status)
		if clearErr := c.sessions.Clear(); clearErr != nil {
			slog.ErrorContext(ctx, "Failed to clear session", "error", clearErr)
		}
		return session.Session{}, fmt.Errorf("refresh rejected with status %d: %w", status, ErrAuthExpired)
	}

	var resp refreshResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return session.Session{}, fmt.Errorf("decode refresh response: %w", err)
	}

	sess.AccessToken = resp.AccessToken
	if resp.RefreshToken != "" {
		sess.RefreshToken = resp.RefreshToken
	}
	if err := c.sessions.Save(sess); err != nil {
		return session.Session{}, fmt.Errorf("persist refreshed session: %w", err)
	}

	slog.DebugContext(ctx, "Access token refreshed")
	return sess, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		return body.Error
	}
	return ""
}
