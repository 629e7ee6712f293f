package payload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultFetchTimeout bounds the webhook GET.
const DefaultFetchTimeout = 15 * time.Second

const maxBodyBytes = 32 << 20

// FetchError reports a failed webhook fetch. It aborts the run.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch webhook data: status %d", e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch webhook data: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher reads the webhook payload over HTTP.
type Fetcher struct {
	url    string
	client *http.Client
}

// NewFetcher creates a Fetcher for url. A nil client gets one with
// DefaultFetchTimeout.
func NewFetcher(url string, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &Fetcher{url: url, client: client}
}

// Fetch performs a single GET of the webhook URL and returns the body.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	if f.url == "" {
		return nil, &FetchError{Err: fmt.Errorf("webhook URL is not configured")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: f.url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}
