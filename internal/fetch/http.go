package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"

	"github.com/MandiZhao/lowvr/internal/compare"
	lverrors "github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/logger"
	"github.com/MandiZhao/lowvr/internal/runs"
)

const (
	defaultRetries    = 3
	defaultRetryDelay = 200 * time.Millisecond
	maxRetryDelay     = 5 * time.Second
	maxErrorBody      = 4 << 10
)

// StatusError is a non-2xx response from the server.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// HTTPOptions configure an HTTPSource.
type HTTPOptions struct {
	Client     *http.Client
	Retries    uint
	RetryDelay time.Duration
	Logger     logger.Logger
}

// HTTPSource talks to the REST API of a running `lowvr serve`.
type HTTPSource struct {
	base    *url.URL
	client  *http.Client
	retries uint
	delay   time.Duration
	log     logger.Logger
}

// NewHTTPSource creates a source for the server at baseURL.
func NewHTTPSource(baseURL string, opts HTTPOptions) (*HTTPSource, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, lverrors.New(lverrors.ErrConfig,
			fmt.Sprintf("Invalid remote URL %q", baseURL),
			"Use an http:// or https:// address, e.g. http://localhost:8765")
	}

	s := &HTTPSource{
		base:    u,
		client:  opts.Client,
		retries: opts.Retries,
		delay:   opts.RetryDelay,
		log:     opts.Logger,
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: 30 * time.Second}
	}
	if s.retries == 0 {
		s.retries = defaultRetries
	}
	if s.delay <= 0 {
		s.delay = defaultRetryDelay
	}
	if s.log == nil {
		s.log = logger.Noop()
	}
	return s, nil
}

func (s *HTTPSource) Runs(ctx context.Context) ([]runs.Run, error) {
	return getJSON[[]runs.Run](ctx, s, "/api/runs", nil)
}

func (s *HTTPSource) FetchMetrics(ctx context.Context, runID string, keys []string) (compare.RawSeries, error) {
	q := url.Values{}
	for _, k := range keys {
		q.Add("keys", k)
	}
	return getJSON[compare.RawSeries](ctx, s, "/api/runs/"+url.PathEscape(runID)+"/metrics", q)
}

func (s *HTTPSource) AvailableMetrics(ctx context.Context, runID string) ([]string, error) {
	return getJSON[[]string](ctx, s, "/api/runs/"+url.PathEscape(runID)+"/available-metrics", nil)
}

// getJSON performs a GET with retries and decodes the JSON response. Network
// errors and 5xx responses are retried; 4xx responses are not. Only a fully
// decoded response is returned, never what a failed attempt left behind.
func getJSON[T any](ctx context.Context, s *HTTPSource, path string, query url.Values) (T, error) {
	u := *s.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()
	target := u.String()

	var out T
	var lastErr error
	err := retry.Do(func() error {
		var v T
		v, lastErr = getOnce[T](ctx, s, target)
		if lastErr == nil {
			out = v
		}
		return lastErr
	},
		retry.Attempts(s.retries),
		retry.Delay(s.delay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			s.log.Debug("retrying GET %s (attempt %d): %v", target, n+1, err)
		}),
		retry.Context(ctx),
	)
	if lastErr == nil {
		lastErr = err
	}
	if lastErr != nil {
		var zero T
		return zero, lverrors.WrapWithCode(lastErr, lverrors.ErrFetch,
			fmt.Sprintf("GET %s failed", path),
			"Check that `lowvr serve` is running at "+s.base.String())
	}
	return out, nil
}

// getOnce decodes into a fresh value each attempt.
func getOnce[T any](ctx context.Context, s *HTTPSource, target string) (T, error) {
	var out T
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return out, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Detail string `json:"detail"`
	}
	detail := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
		detail = payload.Detail
	}
	return &StatusError{StatusCode: resp.StatusCode, Detail: detail}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	var syntax *json.SyntaxError
	return !errors.As(err, &syntax)
}
