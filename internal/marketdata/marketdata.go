// Package marketdata fetches quotes and historical OHLCV series from
// Yahoo Finance, and normalizes raw tabular payloads into ordered series.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/arashplus/arash/pkg/models"
)

// Gateway is the market-data access interface the assistant depends on.
type Gateway interface {
	// Quote returns the latest price snapshot for a symbol.
	Quote(ctx context.Context, symbol string) (*models.Quote, error)

	// History returns daily OHLCV candles for [start, end), dates as YYYY-MM-DD.
	History(ctx context.Context, symbol, start, end string) (*models.Series, error)
}

// --- Sentinel errors ---

// ErrSymbolNotFound is returned when a symbol cannot be resolved.
var ErrSymbolNotFound = errors.New("symbol not found")

// ErrEmptySeries is returned when a history request yields no rows.
var ErrEmptySeries = errors.New("empty historical series")

// ErrInvalidRange is returned when a history date range is malformed or
// empty. Callers can treat it as an input-validation failure.
var ErrInvalidRange = errors.New("invalid date range")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// HTTPClient is a pre-configured HTTP client with reasonable timeouts.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// doGet performs a GET request with the given URL and headers, returning the
// response body. The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, nil
}

// --- Quote cache ---

// quoteEntry holds a cached quote with its fetch time.
type quoteEntry struct {
	quote     *models.Quote
	fetchedAt time.Time
}

// QuoteCache is a small thread-safe memoization of quote lookups, keyed by
// symbol. A cached quote may be returned up to TTL after it was fetched; the
// staleness bound is the only consistency guarantee.
type QuoteCache struct {
	mu      sync.RWMutex
	entries map[string]quoteEntry
	ttl     time.Duration
	now     func() time.Time // injectable clock for tests
}

// NewQuoteCache creates a quote cache with the given TTL.
func NewQuoteCache(ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		entries: make(map[string]quoteEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached quote for symbol if it is younger than the TTL.
func (c *QuoteCache) Get(symbol string) (*models.Quote, bool) {
	c.mu.RLock()
	entry, ok := c.entries[symbol]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.fetchedAt) > c.ttl {
		return nil, false
	}
	return entry.quote, true
}

// Set stores a quote for symbol, stamped with the current time.
func (c *QuoteCache) Set(symbol string, q *models.Quote) {
	c.mu.Lock()
	c.entries[symbol] = quoteEntry{quote: q, fetchedAt: c.now()}
	c.mu.Unlock()
}

// Flush removes all cached quotes.
func (c *QuoteCache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]quoteEntry)
	c.mu.Unlock()
}

// --- Rate limiter ---

// RateLimiter provides simple token-bucket rate limiting.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter that allows maxTokens requests
// per refillRate duration.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
			// Check again after a short sleep.
		}
	}
}

// refill adds tokens based on elapsed time. Must be called with mu held.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	if elapsed >= rl.refillRate {
		periods := int(elapsed / rl.refillRate)
		rl.tokens += periods
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
	}
}
