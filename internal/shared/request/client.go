// Package request is the generic request-issuing collaborator used to reach the login API.
// It knows the base URL, static headers and timeout; callers only supply path and body.
package request

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/authform/internal/shared/config"
)

const requestIDHeader = "X-Request-ID"

var ErrUnavailable = errors.New("login api unavailable")

type (
	// Client issues JSON requests against a single base URL
	Client struct {
		baseURL    string
		headers    map[string]string
		httpClient *http.Client
		logger     zerolog.Logger
	}

	// Response is the settled outcome of a 2xx call, passed through untouched
	Response struct {
		StatusCode int
		Header     http.Header
		Body       []byte
	}

	// StatusError is returned for every non-2xx response
	StatusError struct {
		StatusCode int
		Body       []byte
	}
)

func (e *StatusError) Error() string {
	return fmt.Sprintf("login api responded with status %d", e.StatusCode)
}

// Decode unmarshals the response body into v
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.LoginAPIURL, "/"),
		headers: cfg.LoginAPIHeaders,
		httpClient: &http.Client{
			// zero means no timeout
			Timeout: cfg.LoginAPITimeout,
		},
		logger: logger.With().Str("component", "request").Logger(),
	}
}

// Post marshals body as JSON and sends it to path under the base URL
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(ctx, req)
}

// Ping reports whether the base URL answers at all; any HTTP status counts
func (c *Client) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (c *Client) do(ctx context.Context, req *http.Request) (*Response, error) {
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	reqID := requestID(ctx)
	req.Header.Set(requestIDHeader, reqID)

	log := c.logger.With().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", reqID).
		Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Debug().Dur("duration", duration).Msg("login_api_request_failed")
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("login_api_request_completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// requestID reuses the inbound request ID when the call originates from an HTTP handler
func requestID(ctx context.Context) string {
	if id, ok := hlog.IDFromCtx(ctx); ok {
		return id.String()
	}
	return uuid.NewString()
}
