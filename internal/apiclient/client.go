// Package apiclient is a thin HTTP client for the marketplace's remote REST API.
//
// Every call attaches "Authorization: Bearer <token>" when the configured
// TokenSource returns a token, and goes out anonymously otherwise. Successful
// responses are wrapped as {"success": true, "data": {...}}; non-2xx responses
// become *APIError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ShyamLatake/playout-front/internal/identity"
)

// DefaultTimeout bounds a single round trip when no http.Client is supplied.
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the remote API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client calls the remote API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     identity.TokenSource
	log        zerolog.Logger
}

// New creates a client for baseURL (for example "https://api.example.com/api").
// A nil httpClient gets DefaultTimeout; a nil tokens sends every request
// anonymously.
func New(baseURL string, tokens identity.TokenSource, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if tokens == nil {
		tokens = identity.StaticToken("")
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		log:        log.With().Str("component", "apiclient").Logger(),
	}
}

// envelope is the remote API's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends one request. body, when non-nil, is JSON encoded. out, when
// non-nil, receives the envelope's data object.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get id token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%s %s: response has no data", method, path)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// errorFromResponse prefers the body's "message", then "error", then a
// message derived from the status code.
func errorFromResponse(status int, raw []byte) *APIError {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if msg := strings.TrimSpace(body.Message); msg != "" {
			return &APIError{StatusCode: status, Message: msg}
		}
		if msg := strings.TrimSpace(body.Error); msg != "" {
			return &APIError{StatusCode: status, Message: msg}
		}
	}
	return &APIError{StatusCode: status, Message: fmt.Sprintf("request failed with status %d", status)}
}

func escape(id string) string {
	return url.PathEscape(id)
}
