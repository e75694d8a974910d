package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultRelayURL is the public CORS relay used as the fallback transport.
// The raw feed URL is appended query-escaped.
const DefaultRelayURL = "https://api.allorigins.win/raw?url="

// DefaultFetchTimeout bounds a single feed fetch, fallback included.
const DefaultFetchTimeout = 10 * time.Second

// FetchError indicates a total fetch failure: the direct request and the
// relay fallback both failed. Retryable by a later sync invocation; the
// fetcher itself does no backoff.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FeedFetcher retrieves raw ICS documents over HTTP.
type FeedFetcher struct {
	client   *http.Client
	relayURL string
}

// NewFeedFetcher creates a fetcher with the given per-request timeout and
// relay base URL. Zero values fall back to the package defaults; an
// explicitly empty relay disables the fallback path.
func NewFeedFetcher(timeout time.Duration, relayURL string) *FeedFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &FeedFetcher{
		client:   &http.Client{Timeout: timeout},
		relayURL: relayURL,
	}
}

// Fetch downloads the raw ICS text at feedURL. A failed direct request is
// retried once through the relay; if that also fails the last underlying
// cause is returned wrapped in a FetchError.
func (f *FeedFetcher) Fetch(ctx context.Context, feedURL string) (string, error) {
	body, err := f.get(ctx, feedURL)
	if err == nil {
		return body, nil
	}

	if f.relayURL != "" {
		body, relayErr := f.get(ctx, f.relayURL+url.QueryEscape(feedURL))
		if relayErr == nil {
			return body, nil
		}
		err = relayErr
	}

	return "", &FetchError{URL: feedURL, Err: err}
}

// get performs a single GET and returns the body for 2xx responses.
func (f *FeedFetcher) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/calendar, text/plain, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading feed body: %w", err)
	}

	return string(body), nil
}
