package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/leonezhu/readalong/transcript"
)

const (
	defaultTimeout  = 15 * time.Second
	maxJSONBytes    = 10 << 20
	maxAudioBytes   = 200 << 20
	userAgent       = "readalong/1.0"
	requestIDHeader = "X-Request-ID"
)

// ErrTooLarge is returned when a response exceeds its size limit.
var ErrTooLarge = errors.New("response body too large")

// fetcher performs rate-limited requests with a per-request timeout and
// maps failures onto the transcript error taxonomy.
type fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	header  http.Header
}

func newFetcher(timeout, spacing time.Duration) *fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	f := &fetcher{
		client:  &http.Client{},
		timeout: timeout,
		header:  make(http.Header),
	}
	if spacing > 0 {
		f.limiter = rate.NewLimiter(rate.Every(spacing), 1)
	}
	return f
}

// do sends a request and returns the body, read up to limit bytes.
func (f *fetcher) do(ctx context.Context, method, url string, body any, limit int64) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", transcript.ErrNetwork, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for k, v := range f.header {
		req.Header[k] = v
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transcript.ErrNetwork, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	log.Debug("fetched", "method", method, "url", url, "status", resp.StatusCode,
		"request_id", req.Header.Get(requestIDHeader), "took", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", transcript.ErrNotFound, url)
	case resp.StatusCode == http.StatusNotImplemented:
		return nil, fmt.Errorf("%w: %s", transcript.ErrNotSupported, url)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: unexpected status %s", transcript.ErrNetwork, resp.Status)
	}
	if resp.ContentLength > limit {
		return nil, fmt.Errorf("%w: content-length %d exceeds %d", ErrTooLarge, resp.ContentLength, limit)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", transcript.ErrNetwork, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// fetchJSON GETs url and decodes the response into T.
func fetchJSON[T any](ctx context.Context, f *fetcher, url string) (T, error) {
	var v T
	data, err := f.do(ctx, http.MethodGet, url, nil, maxJSONBytes)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: decode %s: %v", transcript.ErrInvalidArticle, url, err)
	}
	return v, nil
}
