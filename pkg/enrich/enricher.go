package enrich

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Cache is the persistent image-URL cache keyed by article link. Image URLs
// are assumed stable, so entries are written once and never invalidated.
// Descriptions are deliberately not cached.
type Cache interface {
	OGCache() map[string]string
	SaveOGCache(cache map[string]string) error
}

// Enricher extracts best-effort page metadata (preview image, description)
// for article links. Every operation degrades to an empty result on failure;
// no error ever reaches the caller.
type Enricher struct {
	client    *http.Client
	cache     Cache
	userAgent string
	mu        sync.Mutex // serializes cache read-modify-write
}

// New creates a metadata enricher.
func New(timeout time.Duration, userAgent string, cache Cache) *Enricher {
	return &Enricher{
		client:    &http.Client{Timeout: timeout},
		cache:     cache,
		userAgent: userAgent,
	}
}

// PreviewImage returns a preview image URL for the linked page, or "" if none
// could be determined. Cache hits skip the network entirely; a successful
// extraction is written through before returning.
func (e *Enricher) PreviewImage(ctx context.Context, link string) string {
	e.mu.Lock()
	cached := e.cache.OGCache()
	if img, ok := cached[link]; ok {
		e.mu.Unlock()
		return img
	}
	e.mu.Unlock()

	doc, err := e.page(ctx, link)
	if err != nil {
		log.Printf("[DEBUG] no preview image for %s: %v", link, err)
		return ""
	}

	img := extractImage(doc)
	if img == "" {
		return ""
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	cached = e.cache.OGCache()
	cached[link] = img
	if err := e.cache.SaveOGCache(cached); err != nil {
		log.Printf("[WARN] failed to save image cache: %v", err)
	}
	return img
}

// Description returns the page's own description, or "" if none could be
// determined. Always fetched fresh; there is no body-text fallback.
func (e *Enricher) Description(ctx context.Context, link string) string {
	doc, err := e.page(ctx, link)
	if err != nil {
		log.Printf("[DEBUG] no description for %s: %v", link, err)
		return ""
	}

	if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && desc != "" {
		return desc
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && desc != "" {
		return desc
	}
	return ""
}

// page fetches and parses the linked page
func (e *Enricher) page(ctx context.Context, link string) (*goquery.Document, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", link)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// extractImage tries og:image, then twitter:image, then the first <img>
func extractImage(doc *goquery.Document) string {
	if img, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && img != "" {
		return img
	}
	if img, ok := doc.Find(`meta[name="twitter:image"]`).Attr("content"); ok && img != "" {
		return img
	}
	if img, ok := doc.Find("img").First().Attr("src"); ok && img != "" {
		return img
	}
	return ""
}

// Truncate shortens s to at most n runes, appending "..." when cut. Display
// code uses n=150 for descriptions and summaries.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
