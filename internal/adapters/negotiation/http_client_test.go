package negotiation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService mimics the negotiation service routes
type fakeService struct {
	prepareCalls atomic.Int32
	failFirst    int32
	status       int
	body         string
	lastRequest  atomic.Value
	lastHeader   atomic.Value
}

func (f *fakeService) routes() http.Handler {
	r := chi.NewRouter()
	r.Get(StatusPath, func(w http.ResponseWriter, r *http.Request) {
		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	r.Post(PreparePath, func(w http.ResponseWriter, r *http.Request) {
		n := f.prepareCalls.Add(1)
		f.lastHeader.Store(r.Header.Clone())

		var req prepareRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.lastRequest.Store(req)

		if n <= f.failFirst {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		if f.body != "" {
			_, _ = w.Write([]byte(f.body))
			return
		}
		_ = json.NewEncoder(w).Encode(prepareResponse{ID: "srv-" + req.Name})
	})
	return r
}

func newServer(t *testing.T, f *fakeService) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(f.routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_NegotiateSuccess(t *testing.T) {
	f := &fakeService{}
	srv := newServer(t, f)
	c := NewHTTPClient(srv.URL+"/", Options{})

	id, err := c.Negotiate(context.Background(), "report.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "srv-report.pdf", id)

	req := f.lastRequest.Load().(prepareRequest)
	assert.Equal(t, prepareRequest{Name: "report.pdf", ContentType: "application/pdf"}, req)

	h := f.lastHeader.Load().(http.Header)
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	_, err = uuid.Parse(h.Get(HeaderRequestID))
	assert.NoError(t, err, "request id must be a uuid")
}

func TestHTTPClient_NonSuccessStatusIsFailure(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			f := &fakeService{status: code}
			c := NewHTTPClient(newServer(t, f).URL, Options{})

			_, err := c.Negotiate(context.Background(), "bad.bin", "application/octet-stream")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnexpectedStatus))
			assert.Equal(t, int32(1), f.prepareCalls.Load(), "no retries by default")
		})
	}
}

func TestHTTPClient_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>"},
		{"missing id", `{"other":"x"}`},
		{"blank id", `{"id":"  "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeService{body: tt.body}
			c := NewHTTPClient(newServer(t, f).URL, Options{})

			_, err := c.Negotiate(context.Background(), "x.txt", "text/plain")
			assert.True(t, errors.Is(err, ErrMalformedResponse), "got %v", err)
		})
	}
}

func TestHTTPClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, Options{})
	_, err := c.Negotiate(context.Background(), "x.txt", "text/plain")
	assert.Error(t, err)
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	f := &fakeService{failFirst: 2}
	c := NewHTTPClient(newServer(t, f).URL, Options{MaxRetries: 3, RetryBackoff: time.Millisecond})

	id, err := c.Negotiate(context.Background(), "flaky.txt", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "srv-flaky.txt", id)
	assert.Equal(t, int32(3), f.prepareCalls.Load())
}

func TestHTTPClient_RetriesAreBounded(t *testing.T) {
	f := &fakeService{failFirst: 100}
	c := NewHTTPClient(newServer(t, f).URL, Options{MaxRetries: 2, RetryBackoff: time.Millisecond})

	_, err := c.Negotiate(context.Background(), "down.txt", "text/plain")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	assert.Equal(t, int32(3), f.prepareCalls.Load())
}

func TestHTTPClient_ClientErrorsAreNotRetried(t *testing.T) {
	f := &fakeService{status: http.StatusUnprocessableEntity}
	c := NewHTTPClient(newServer(t, f).URL, Options{MaxRetries: 5, RetryBackoff: time.Millisecond})

	_, err := c.Negotiate(context.Background(), "x.txt", "text/plain")
	require.Error(t, err)
	assert.Equal(t, int32(1), f.prepareCalls.Load())
}

func TestHTTPClient_Ping(t *testing.T) {
	c := NewHTTPClient(newServer(t, &fakeService{}).URL, Options{})
	assert.NoError(t, c.Ping(context.Background()))

	down := NewHTTPClient(newServer(t, &fakeService{status: http.StatusBadGateway}).URL, Options{})
	err := down.Ping(context.Background())
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
}

func TestHTTPClient_BaseURLTrimmed(t *testing.T) {
	c := NewHTTPClient("http://example.test:8080///", Options{})
	assert.Equal(t, "http://example.test:8080", c.BaseURL())
}
