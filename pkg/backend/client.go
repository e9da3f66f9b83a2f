package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bookingdesk/pkg/session"
)

// Client talks to the marketplace REST backend on behalf of a session. Routes are the
// backend's; this package only owns the call shapes.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Error is returned for any non-2xx backend response.
type Error struct {
	Status  int
	Message string
	Body    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error: status=%d message=%s", e.Status, e.Message)
	}
	if e.Body != "" {
		return fmt.Sprintf("backend error: status=%d body=%s", e.Status, e.Body)
	}
	return fmt.Sprintf("backend error: status=%d", e.Status)
}

type requestOpts struct {
	idempotencyKey string
}

func (c *Client) doJSON(ctx context.Context, sess *session.Session, method, path string, reqBody any, respBody any, opts requestOpts) (int, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if c.BaseURL == "" {
		return 0, fmt.Errorf("missing backend base url")
	}

	var body io.Reader
	if reqBody != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return 0, err
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess != nil && sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}
	if opts.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.idempotencyKey)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	b, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return resp.StatusCode, readErr
	}

	// Surface the backend's message for non-2xx so callers can show it.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &Error{Status: resp.StatusCode, Message: messageFrom(b), Body: string(b)}
	}

	if respBody != nil && len(b) > 0 {
		if err := unmarshalNumbers(b, respBody); err != nil {
			return resp.StatusCode, fmt.Errorf("decode backend response failed: %w body=%s", err, string(b))
		}
	}
	return resp.StatusCode, nil
}

// messageFrom extracts {"message": ...} or {"error": "..."} style messages.
func messageFrom(b []byte) string {
	var env struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return ""
	}
	if env.Message != "" {
		return env.Message
	}
	if len(env.Error) > 0 {
		var s string
		if err := json.Unmarshal(env.Error, &s); err == nil {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(env.Error, &nested); err == nil {
			return nested.Message
		}
	}
	return ""
}

// unmarshalNumbers keeps numbers as json.Number so amounts never pass through float64.
func unmarshalNumbers(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}
