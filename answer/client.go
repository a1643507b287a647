// Package answer is the client for the remote answer-generation service.
// Each question is one blocking POST; the reply carries the answer text and
// the citation of the passage it was drawn from.
package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sonnes/granth/core"
	"golang.org/x/time/rate"
)

// DefaultURL is the backend address used when none is configured.
const DefaultURL = "http://0.0.0.0:8000"

// ErrorPrefix is prepended to backend-reported errors folded into answer text.
const ErrorPrefix = "Error occurred: "

// ErrMalformedReply is returned when the reply is valid JSON but carries
// neither an error nor a response.
var ErrMalformedReply = errors.New("reply has no response field")

// StatusError is returned for non-2xx replies that do not carry an error field.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("answer service returned status %d", e.Code)
	}
	return fmt.Sprintf("answer service returned status %d: %s", e.Code, e.Body)
}

// maxErrorBody bounds how much of a failed reply is kept in StatusError.
const maxErrorBody = 512

// Client posts questions to the answer service.
type Client struct {
	url       string
	client    *http.Client
	timeout   *time.Duration
	limiter   *rate.Limiter
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The client is never
// modified; WithTimeout applies to a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout bounds each request. Zero means no timeout. It takes effect
// regardless of where it appears relative to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = &d }
}

// WithRateLimit throttles outbound requests to perSecond with the given burst.
// A non-positive rate disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a Client for the service at url.
func New(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:       url,
		client:    &http.Client{},
		userAgent: "granth",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	if c.timeout != nil {
		hc := *c.client
		hc.Timeout = *c.timeout
		c.client = &hc
	}
	return c
}

// URL returns the endpoint questions are posted to.
func (c *Client) URL() string {
	return c.url
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask sends question to the service. A reply carrying an "error" field is
// folded into the answer text with ErrorPrefix and a nil citation. Transport
// failures, undecodable replies, and non-2xx statuses without an error field
// are returned as errors.
func (c *Client) Ask(ctx context.Context, question string) (string, *core.Citation, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	body, err := json.Marshal(askRequest{Question: question})
	if err != nil {
		return "", nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("call answer service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read reply: %w", err)
	}

	return parseReply(resp.StatusCode, data)
}

// parseReply shapes a raw reply into answer text and citation.
func parseReply(status int, data []byte) (string, *core.Citation, error) {
	var fields map[string]json.RawMessage
	decodeErr := json.Unmarshal(data, &fields)

	// An error field wins regardless of status.
	if decodeErr == nil {
		if raw, ok := fields["error"]; ok {
			return ErrorPrefix + errorText(raw), nil, nil
		}
	}

	if status < 200 || status > 299 {
		return "", nil, &StatusError{Code: status, Body: truncateBody(data)}
	}
	if decodeErr != nil {
		return "", nil, fmt.Errorf("decode reply: %w", decodeErr)
	}

	raw, ok := fields["response"]
	if !ok {
		return "", nil, ErrMalformedReply
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", nil, fmt.Errorf("decode response field: %w", err)
	}

	raw, ok = fields["context"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return text, nil, nil
	}
	var cit core.Citation
	if err := json.Unmarshal(raw, &cit); err != nil {
		return "", nil, fmt.Errorf("decode context field: %w", err)
	}
	return text, &cit, nil
}

// errorText renders an error field: strings verbatim, anything else as JSON.
func errorText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func truncateBody(data []byte) string {
	s := string(bytes.TrimSpace(data))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
