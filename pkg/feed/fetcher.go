package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/markusbegerow/feeddeck/pkg/domain"
)

// summaryPolicy strips all markup from feed-provided summaries before they
// reach display code.
var summaryPolicy = bluemonday.StrictPolicy()

// Fetcher retrieves and parses RSS/Atom feeds over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
	retries   int
}

// NewFetcher creates a feed fetcher. Some servers reject default Go agents,
// so a realistic user agent is required.
func NewFetcher(timeout time.Duration, userAgent string, retries int) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
		retries:   retries,
	}
}

// Fetch retrieves a feed URL and parses it into normalized entries. Entries
// preserve feed order; no re-sorting happens here. Transient failures are
// retried with backoff, and any terminal failure (unreachable host, timeout,
// non-200 status, malformed feed) is returned as a wrapped error for the
// caller's per-feed failure boundary.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]domain.Entry, error) {
	var entries []domain.Entry

	retrier := repeater.NewBackoff(f.retries, 500*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		var err error
		entries, err = f.fetchOnce(ctx, feedURL)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	return entries, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, feedURL string) ([]domain.Entry, error) {
	body, err := f.get(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]domain.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entry := domain.Entry{
			Title:     item.Title,
			Link:      item.Link,
			Summary:   summaryPolicy.Sanitize(item.Description),
			FeedTitle: parsed.Title,
		}

		// missing publish dates stay at zero time so such entries can never
		// be classified as new
		if item.PublishedParsed != nil {
			entry.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			entry.Published = *item.UpdatedParsed
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// get retrieves content from a URL with browser-like headers
func (f *Fetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	addBrowserHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}
