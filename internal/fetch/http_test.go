package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lverrors "github.com/MandiZhao/lowvr/internal/errors"
)

func newTestSource(t *testing.T, h http.HandlerFunc) (*HTTPSource, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	src, err := NewHTTPSource(srv.URL+"/", HTTPOptions{Retries: 3, RetryDelay: time.Millisecond})
	require.NoError(t, err)
	return src, &hits
}

func TestNewHTTPSource_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8765", "ftp://host", "http://"} {
		t.Run(raw, func(t *testing.T) {
			_, err := NewHTTPSource(raw, HTTPOptions{})
			assert.True(t, lverrors.IsCode(err, lverrors.ErrConfig))
		})
	}
}

func TestHTTPSource_FetchMetrics(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/runs/abc/metrics", r.URL.Path)
		assert.Equal(t, []string{"loss", "acc"}, r.URL.Query()["keys"])
		_, _ = w.Write([]byte(`{"_step": [0, 1], "loss": [1.5, null]}`))
	})

	got, err := src.FetchMetrics(context.Background(), "abc", []string{"loss", "acc"})
	require.NoError(t, err)
	require.Len(t, got["loss"], 2)
	assert.Equal(t, 1.5, got["loss"][0].V)
	assert.False(t, got["loss"][1].Valid)
}

func TestHTTPSource_RunsAndAvailable(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/runs":
			_, _ = w.Write([]byte(`[{"id": "abc", "display_name": "swift"}]`))
		case "/api/runs/abc/available-metrics":
			_ = json.NewEncoder(w).Encode([]string{"_step", "loss"})
		default:
			http.NotFound(w, r)
		}
	})

	list, err := src.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "swift", list[0].DisplayName)

	keys, err := src.AvailableMetrics(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"_step", "loss"}, keys)
}

func TestHTTPSource_RetriesServerErrors(t *testing.T) {
	var calls int32
	src, hits := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`["loss"]`))
	})

	keys, err := src.AvailableMetrics(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"loss"}, keys)
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}

func TestHTTPSource_RetryDiscardsPartialDecode(t *testing.T) {
	// the first reply decodes partway before a type error, which is retried
	tests := []struct {
		name    string
		replies []string
		check   func(t *testing.T, src *HTTPSource)
	}{
		{
			name:    "metrics map",
			replies: []string{`{"loss": [1.0], "acc": "oops"}`, `{"reward": [3.0]}`},
			check: func(t *testing.T, src *HTTPSource) {
				got, err := src.FetchMetrics(context.Background(), "abc", nil)
				require.NoError(t, err)
				assert.Len(t, got, 1)
				assert.Contains(t, got, "reward")
			},
		},
		{
			name: "run list",
			replies: []string{
				`[{"id": "abc", "display_name": "stale", "state": 5}]`,
				`[{"id": "def"}]`,
			},
			check: func(t *testing.T, src *HTTPSource) {
				got, err := src.Runs(context.Background())
				require.NoError(t, err)
				require.Len(t, got, 1)
				assert.Equal(t, "def", got[0].ID)
				assert.Empty(t, got[0].DisplayName)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			src, hits := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				n := int(atomic.AddInt32(&calls, 1)) - 1
				if n >= len(tt.replies) {
					n = len(tt.replies) - 1
				}
				_, _ = w.Write([]byte(tt.replies[n]))
			})
			tt.check(t, src)
			assert.Equal(t, int32(2), atomic.LoadInt32(hits))
		})
	}
}

func TestHTTPSource_ClientErrorsAreNotRetried(t *testing.T) {
	src, hits := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "Run abc not found"}`))
	})

	_, err := src.FetchMetrics(context.Background(), "abc", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.True(t, lverrors.IsCode(err, lverrors.ErrFetch))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "Run abc not found", se.Detail)
}

func TestHTTPSource_GivesUpAfterAttempts(t *testing.T) {
	src, hits := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	_, err := src.Runs(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "down", se.Detail)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &StatusError{StatusCode: 500}, true},
		{"client error", &StatusError{StatusCode: 400}, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"network", errors.New("connection refused"), true},
		{"bad json", &json.SyntaxError{}, false},
		{"wrong json type", &json.UnmarshalTypeError{Value: "string"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}
