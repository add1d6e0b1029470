// Package signal fetches the grid renewable-energy signal and classifies it
// into indicator statuses.
package signal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/smazurov/gridlight/internal/logging"
)

// DefaultURL is the energy-charts traffic-light signal for Germany.
const DefaultURL = "https://api.energy-charts.info/signal?country=de"

// maxBodySize caps the response body read from the endpoint.
const maxBodySize = 4 << 20

// Fetcher retrieves the signal payload with a single unauthenticated GET.
// There are no retries; the caller polls again on its next iteration.
type Fetcher struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = client
	}
}

// WithTimeout bounds each request. Zero keeps the client default.
func WithTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a fetcher for url. An empty url uses DefaultURL.
func NewFetcher(url string, opts ...FetcherOption) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	f := &Fetcher{
		url:        url,
		httpClient: http.DefaultClient,
		logger:     logging.GetLogger("signal"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL returns the endpoint this fetcher polls.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch performs the GET and decodes the body. Any failure is returned as a
// *FetchError.
func (f *Fetcher) Fetch(ctx context.Context) (*Payload, error) {
	f.logger.Info("Fetching data", "url", f.url)

	payload, err := f.fetch(ctx)
	if err != nil {
		f.logger.Error("Error fetching JSON data", "url", f.url, "error", err)
		return nil, newFetchError(f.url, err)
	}

	f.logger.Info("Fetched JSON data", "payload", payload.Pretty())
	return payload, nil
}

func (f *Fetcher) fetch(ctx context.Context) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	return NewPayload(body)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
