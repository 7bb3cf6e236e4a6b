package feed

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/markusbegerow/feeddeck/pkg/domain"
)

// fallbackPaths are probed relative to the site root when a page does not
// advertise its feeds.
var fallbackPaths = []string{"/feed", "/rss", "/feeds/posts/default", "/index.xml"}

// Candidate is a discovered feed reference.
type Candidate struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// FeedProber checks whether a URL serves a parseable feed.
type FeedProber interface {
	Fetch(ctx context.Context, feedURL string) ([]domain.Entry, error)
}

// Discoverer probes a website for advertised and conventional feed URLs.
type Discoverer struct {
	client    *http.Client
	prober    FeedProber
	userAgent string
}

// NewDiscoverer creates a feed discoverer. The prober validates fallback-path
// candidates by attempting a real feed parse.
func NewDiscoverer(timeout time.Duration, userAgent string, prober FeedProber) *Discoverer {
	return &Discoverer{
		client:    &http.Client{Timeout: timeout},
		prober:    prober,
		userAgent: userAgent,
	}
}

// Discover returns a deduplicated, ordered list of candidate feeds for a
// website. Only a failure to fetch the initial page empties the result;
// individual fallback probes fail silently.
func (d *Discoverer) Discover(ctx context.Context, siteURL string) []Candidate {
	base, err := url.Parse(siteURL)
	if err != nil || base.Host == "" {
		log.Printf("[WARN] discovery skipped, invalid site URL %q: %v", siteURL, err)
		return nil
	}

	doc, err := d.page(ctx, siteURL)
	if err != nil {
		log.Printf("[WARN] discovery failed for %s: %v", siteURL, err)
		return nil
	}

	var found []Candidate
	seen := map[string]bool{}
	add := func(title, candidateURL string) {
		if candidateURL == "" || seen[candidateURL] {
			return
		}
		seen[candidateURL] = true
		if title = strings.TrimSpace(title); title == "" {
			title = "RSS Feed"
		}
		found = append(found, Candidate{Title: title, URL: candidateURL})
	}

	// advertised <link> elements
	doc.Find(`link[type*="rss"], link[type*="atom"]`).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		add(sel.AttrOr("title", ""), resolve(base, href))
	})

	// anchors that look like feed links
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		abs := resolve(base, href)
		lower := strings.ToLower(abs)
		if abs == "" || (!strings.Contains(lower, "rss") && !strings.Contains(lower, "feed")) {
			return
		}
		add(sel.Text(), abs)
	})

	// conventional paths off the site root, kept only if they actually parse
	for _, path := range fallbackPaths {
		probeURL := resolve(base, path)
		if probeURL == "" || seen[probeURL] {
			continue
		}
		if _, err := d.prober.Fetch(ctx, probeURL); err != nil {
			continue
		}
		add(fmt.Sprintf("Fallback: %s", path), probeURL)
	}

	return found
}

// page fetches and parses the site HTML
func (d *Discoverer) page(ctx context.Context, siteURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
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

// resolve makes href absolute against base, empty string on failure
func resolve(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
