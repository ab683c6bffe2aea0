// Package news searches recent financial headlines through the Google News
// RSS search feed.
package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/arashplus/arash/pkg/models"
)

// DefaultMaxResults caps how many articles a search returns by default.
const DefaultMaxResults = 3

// Searcher is the news lookup interface the assistant depends on.
type Searcher interface {
	// Search returns recent articles matching the query, newest first.
	Search(ctx context.Context, query string, max int) ([]models.NewsItem, error)
}

// GoogleNews implements Searcher against the Google News RSS search endpoint.
type GoogleNews struct {
	baseURL string
	parser  *gofeed.Parser
	cache   *resultCache
}

// Option configures the Google News searcher.
type Option func(*GoogleNews)

// WithBaseURL points the searcher at a different host (used in tests).
func WithBaseURL(u string) Option {
	return func(g *GoogleNews) { g.baseURL = strings.TrimRight(u, "/") }
}

// WithCacheTTL overrides how long search results are memoized.
func WithCacheTTL(ttl time.Duration) Option {
	return func(g *GoogleNews) { g.cache = newResultCache(ttl) }
}

// NewGoogleNews creates a Google News searcher.
func NewGoogleNews(opts ...Option) *GoogleNews {
	g := &GoogleNews{
		baseURL: "https://news.google.com",
		parser:  gofeed.NewParser(),
		cache:   newResultCache(10 * time.Minute),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Search returns up to max recent articles for the query. Results are
// memoized per query for the cache TTL.
func (g *GoogleNews) Search(ctx context.Context, query string, max int) ([]models.NewsItem, error) {
	if max <= 0 {
		max = DefaultMaxResults
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	cacheKey := fmt.Sprintf("%s:%d", query, max)
	if cached, ok := g.cache.get(cacheKey); ok {
		return cached, nil
	}

	feedURL := fmt.Sprintf("%s/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en",
		g.baseURL, url.QueryEscape(query))

	feed, err := g.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("news search %q: %w", query, err)
	}

	items := make([]models.NewsItem, 0, max)
	for _, item := range feed.Items {
		if len(items) >= max {
			break
		}
		n := models.NewsItem{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Snippet: cleanHTML(item.Description),
		}
		if n.Title == "" || n.URL == "" {
			continue
		}
		if item.PublishedParsed != nil {
			n.PublishedAt = *item.PublishedParsed
		}
		if len(item.Authors) > 0 {
			n.Source = item.Authors[0].Name
		}
		items = append(items, n)
	}

	g.cache.set(cacheKey, items)
	return items, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// --- Result cache ---

type cacheEntry struct {
	items     []models.NewsItem
	fetchedAt time.Time
}

type resultCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *resultCache) get(key string) ([]models.NewsItem, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.fetchedAt) > c.ttl {
		return nil, false
	}
	return entry.items, true
}

func (c *resultCache) set(key string, items []models.NewsItem) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{items: items, fetchedAt: c.now()}
	c.mu.Unlock()
}
