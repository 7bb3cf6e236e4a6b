package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache is an in-memory Cache for tests
type memCache struct {
	mu    sync.Mutex
	data  map[string]string
	saves int
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (c *memCache) OGCache() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}

func (c *memCache) SaveOGCache(cache map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = cache
	c.saves++
	return nil
}

func TestEnricher_PreviewImage(t *testing.T) {
	t.Run("og image extracted and cached", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.Write([]byte(`<html><head>
				<meta property="og:image" content="https://example.com/og.png">
				<meta name="twitter:image" content="https://example.com/tw.png">
			</head><body><img src="/inline.png"></body></html>`))
		}))
		defer server.Close()

		cache := newMemCache()
		e := New(5*time.Second, "Mozilla/5.0 (test)", cache)

		img := e.PreviewImage(context.Background(), server.URL+"/article")
		assert.Equal(t, "https://example.com/og.png", img, "og:image wins over the alternatives")
		assert.Equal(t, 1, requests)
		assert.Equal(t, 1, cache.saves)

		// second call served from cache, no network
		img = e.PreviewImage(context.Background(), server.URL+"/article")
		assert.Equal(t, "https://example.com/og.png", img)
		assert.Equal(t, 1, requests, "cache hit must not refetch")
		assert.Equal(t, 1, cache.saves)
	})

	t.Run("twitter image fallback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><head>
				<meta name="twitter:image" content="https://example.com/tw.png">
			</head><body><img src="/inline.png"></body></html>`))
		}))
		defer server.Close()

		e := New(5*time.Second, "Mozilla/5.0 (test)", newMemCache())
		assert.Equal(t, "https://example.com/tw.png", e.PreviewImage(context.Background(), server.URL))
	})

	t.Run("first img fallback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><body><img src="/first.png"><img src="/second.png"></body></html>`))
		}))
		defer server.Close()

		e := New(5*time.Second, "Mozilla/5.0 (test)", newMemCache())
		assert.Equal(t, "/first.png", e.PreviewImage(context.Background(), server.URL))
	})

	t.Run("no image means no cache write", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><body>plain text</body></html>`))
		}))
		defer server.Close()

		cache := newMemCache()
		e := New(5*time.Second, "Mozilla/5.0 (test)", cache)
		assert.Empty(t, e.PreviewImage(context.Background(), server.URL))
		assert.Equal(t, 0, cache.saves)
	})

	t.Run("fetch failure degrades to empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		e := New(5*time.Second, "Mozilla/5.0 (test)", newMemCache())
		assert.Empty(t, e.PreviewImage(context.Background(), server.URL))
	})

	t.Run("invalid link", func(t *testing.T) {
		e := New(5*time.Second, "Mozilla/5.0 (test)", newMemCache())
		assert.Empty(t, e.PreviewImage(context.Background(), "not a url"))
	})
}

func TestEnricher_Description(t *testing.T) {
	t.Run("og description preferred", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><head>
				<meta property="og:description" content="og description here">
				<meta name="description" content="meta description here">
			</head></html>`))
		}))
		defer server.Close()

		e := New(5*time.Second, "Mozilla/5.0 (test)", newMemCache())
		assert.Equal(t, "og description here", e.Description(context.Background(), server.URL))
	})

	t.Run("meta description fallback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><head>
				<meta name="description" content="meta description here">
			</head></html>`))
		}))
		defer server.Close()

		e := New(5*time.Second, "Mozilla/5.0 (test)", newMemCache())
		assert.Equal(t, "meta description here", e.Description(context.Background(), server.URL))
	})

	t.Run("no body text fallback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><body><p>lots of article text that must not leak into the description</p></body></html>`))
		}))
		defer server.Close()

		e := New(5*time.Second, "Mozilla/5.0 (test)", newMemCache())
		assert.Empty(t, e.Description(context.Background(), server.URL))
	})

	t.Run("never cached", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.Write([]byte(`<html><head><meta property="og:description" content="fresh"></head></html>`))
		}))
		defer server.Close()

		cache := newMemCache()
		e := New(5*time.Second, "Mozilla/5.0 (test)", cache)
		e.Description(context.Background(), server.URL)
		e.Description(context.Background(), server.URL)
		assert.Equal(t, 2, requests, "descriptions are fetched fresh every time")
		assert.Equal(t, 0, cache.saves)
	})
}

func TestTruncate(t *testing.T) {
	t.Run("short string unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", Truncate("hello", 150))
	})

	t.Run("exact length unchanged", func(t *testing.T) {
		s := strings.Repeat("a", 150)
		assert.Equal(t, s, Truncate(s, 150))
	})

	t.Run("long string cut with ellipsis", func(t *testing.T) {
		s := strings.Repeat("a", 200)
		got := Truncate(s, 150)
		require.Len(t, got, 153)
		assert.Equal(t, strings.Repeat("a", 150)+"...", got)
	})

	t.Run("multibyte runes respected", func(t *testing.T) {
		s := strings.Repeat("ü", 10)
		got := Truncate(s, 5)
		assert.Equal(t, strings.Repeat("ü", 5)+"...", got)
	})
}
