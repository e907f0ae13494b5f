package negotiation

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
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
)

const (
	// PreparePath is the negotiation endpoint
	PreparePath = "/file/prepare"
	// StatusPath is the health endpoint
	StatusPath = "/status"

	// HeaderRequestID carries a per-request uuid for correlating logs
	HeaderRequestID = "X-Request-ID"

	maxResponseBytes = 1 << 20
)

var (
	// ErrUnexpectedStatus is returned for any non-2xx response
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrMalformedResponse is returned when the success body carries no usable id
	ErrMalformedResponse = errors.New("malformed negotiation response")
)

// prepareRequest is the negotiation payload
type prepareRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
}

// prepareResponse is the negotiation success payload
type prepareResponse struct {
	ID string `json:"id"`
}

// Options configures an HTTPClient
type Options struct {
	// MaxRetries is the number of extra attempts after a transport error or
	// a 5xx response. Zero means a single attempt.
	MaxRetries int
	// RetryBackoff is the base of the exponential backoff between attempts
	RetryBackoff time.Duration
	// HTTPClient overrides the default http.Client
	HTTPClient *http.Client
}

// HTTPClient negotiates identifiers with the remote service over HTTP+JSON
type HTTPClient struct {
	baseURL string
	c       *http.Client
	opts    Options
}

// NewHTTPClient creates a client for the service at baseURL
func NewHTTPClient(baseURL string, opts Options) *HTTPClient {
	c := opts.HTTPClient
	if c == nil {
		c = &http.Client{}
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 200 * time.Millisecond
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		c:       c,
		opts:    opts,
	}
}

// BaseURL returns the service address the client talks to
func (h *HTTPClient) BaseURL() string {
	return h.baseURL
}

// Negotiate posts the file's name and content type and returns the id
// assigned by the service
func (h *HTTPClient) Negotiate(ctx context.Context, name, contentType string) (string, error) {
	body, err := json.Marshal(prepareRequest{Name: name, ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("encode negotiation request: %w", err)
	}

	var id string
	attempt := 0
	err = retry.Do(ctx, h.backoff(), func(ctx context.Context) error {
		attempt++
		var callErr error
		id, callErr = h.prepare(ctx, body)
		if callErr != nil && isRetryable(callErr) && ctx.Err() == nil {
			log.Debug().Err(callErr).Str("file", name).Int("attempt", attempt).Msg("negotiation attempt failed")
			return retry.RetryableError(callErr)
		}
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("negotiate %q: %w", name, err)
	}

	return id, nil
}

func (h *HTTPClient) backoff() retry.Backoff {
	b := retry.NewExponential(h.opts.RetryBackoff)
	return retry.WithMaxRetries(uint64(max(h.opts.MaxRetries, 0)), b)
}

func (h *HTTPClient) prepare(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+PreparePath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)

	resp, err := h.c.Do(req)
	if err != nil {
		return "", &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		log.Warn().
			Str("request_id", requestID).
			Int("status", resp.StatusCode).
			Msg("negotiation rejected")
		return "", &statusError{code: resp.StatusCode, status: resp.Status}
	}

	var out prepareResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", fmt.Errorf("%w: empty id", ErrMalformedResponse)
	}

	return out.ID, nil
}

// Ping probes the service health endpoint
func (h *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+StatusPath, nil)
	if err != nil {
		return err
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())

	resp, err := h.c.Do(req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", h.baseURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("ping %s: %w", h.baseURL, &statusError{code: resp.StatusCode, status: resp.Status})
	}
	return nil
}

type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnexpectedStatus, e.status)
}

func (e *statusError) Unwrap() error { return ErrUnexpectedStatus }

// isRetryable reports whether another attempt could succeed: transport
// errors and server-side (5xx) failures are retried, everything else is final
func isRetryable(err error) bool {
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError
	}
	return false
}
