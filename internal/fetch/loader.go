// Package fetch is the HTTP transport used by the extraction commands. It
// wraps a plain http.Client with a consistent timeout policy, status-code
// errors that carry a body excerpt, charset-aware decoding for HTML, and
// metrics instrumentation.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"scrape/internal/metrics"

	"golang.org/x/text/encoding/htmlindex"
)

const userAgent = "scrape/1.0"

// errBodyLimit bounds how much of an error response body ends up in the
// error message.
const errBodyLimit = 4096

// StatusError reports a non-2xx response. The status code is kept for
// diagnostics; callers log it and move on to the next record.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// Loader fetches remote documents with a consistent timeout policy.
type Loader struct {
	client  *http.Client
	timeout time.Duration
}

// NewLoader creates a Loader. If client is nil, http.DefaultClient is used.
func NewLoader(client *http.Client, timeout time.Duration) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		client:  client,
		timeout: timeout,
	}
}

// Get fetches url and returns the raw body bytes plus the response
// Content-Type. Non-2xx responses return a *StatusError with the status code
// and up to 4KB of the body.
//
// Every attempt is recorded in metrics: request count, error count, duration
// and download size, labeled by status code ("error" for transport
// failures that never produced a response).
func (l *Loader) Get(ctx context.Context, url string) ([]byte, string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		observe("error", time.Since(start), 0, true)
		return nil, "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		observe(status, time.Since(start), int64(len(body)), true)
		return nil, "", &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(body)),
		}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		observe(status, time.Since(start), int64(len(b)), true)
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	observe(status, time.Since(start), int64(len(b)), false)
	return b, resp.Header.Get("Content-Type"), nil
}

// HTML fetches url and returns the body decoded to UTF-8.
//
// The charset comes from the Content-Type header; unknown or missing
// charsets fall back to treating the body as UTF-8, which matches how
// browsers deal with mislabeled pages often enough for scraping.
func (l *Loader) HTML(ctx context.Context, url string) (string, error) {
	b, contentType, err := l.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return DecodeBody(b, contentType)
}

// JSON fetches url and decodes the response body into v.
func (l *Loader) JSON(ctx context.Context, url string, v any) error {
	b, _, err := l.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// DecodeBody converts body to UTF-8 according to the charset parameter of
// contentType. UTF-8, unknown charsets, and malformed Content-Type values
// all pass the body through unchanged.
func DecodeBody(body []byte, contentType string) (string, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body), nil
	}

	name := strings.ToLower(strings.TrimSpace(params["charset"]))
	if name == "" || name == "utf-8" || name == "utf8" {
		return string(body), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return string(body), nil
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("decode charset %q: %w", name, err)
	}
	return string(decoded), nil
}

func observe(status string, dur time.Duration, size int64, failed bool) {
	labels := metrics.Labels{"status": status}
	metrics.IncCounter(metrics.HTTPRequestsTotal, 1, labels)
	if failed {
		metrics.IncCounter(metrics.HTTPErrorsTotal, 1, labels)
	}
	metrics.ObserveHistogram(metrics.HTTPRequestDuration, dur.Seconds(), labels)
	if size > 0 {
		metrics.ObserveHistogram(metrics.HTTPDownloadBytes, float64(size), labels)
	}
}
