package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arashplus/arash/pkg/models"
)

const quoteJSON = `{
  "quoteResponse": {
    "result": [{
      "symbol": "AAPL",
      "shortName": "Apple Inc.",
      "longName": "Apple Inc. Common Stock",
      "currency": "USD",
      "regularMarketPrice": 178.25,
      "regularMarketTime": 1704229200
    }],
    "error": null
  }
}`

const chartJSON = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "currency": "USD"},
      "timestamp": [1704186000, 1704272400, 1704358800],
      "indicators": {
        "quote": [{
          "open": [185.0, 184.2, null],
          "high": [186.5, 185.9, 184.0],
          "low": [183.9, 183.4, 182.7],
          "close": [185.6, 184.3, null],
          "volume": [52000000, 48000000, null]
        }],
        "adjclose": [{"adjclose": [185.1, 183.8, null]}]
      }
    }],
    "error": null
  }
}`

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *Yahoo {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewYahoo(WithYahooBaseURL(srv.URL), WithYahooHTTPClient(srv.Client()))
}

func TestYahooQuote(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v7/finance/quote") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbols"); got != "AAPL" {
			t.Errorf("symbols = %q, want AAPL", got)
		}
		fmt.Fprint(w, quoteJSON)
	})

	q, err := y.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if q.Price != 178.25 {
		t.Errorf("Price = %v, want 178.25", q.Price)
	}
	if q.Name != "Apple Inc." {
		t.Errorf("Name = %q, want short name preferred", q.Name)
	}
	if q.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", q.Currency)
	}
}

func TestYahooQuoteNotFound(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quoteResponse": {"result": [], "error": null}}`)
	})

	_, err := y.Quote(context.Background(), "NOPE")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("Quote() error = %v, want ErrSymbolNotFound", err)
	}
}

func TestYahooQuoteCached(t *testing.T) {
	var calls int
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, quoteJSON)
	})

	for i := 0; i < 3; i++ {
		if _, err := y.Quote(context.Background(), "AAPL"); err != nil {
			t.Fatalf("Quote() #%d error = %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (cached)", calls)
	}
}

func TestQuoteCacheExpiry(t *testing.T) {
	cache := NewQuoteCache(60 * time.Second)
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("AAPL", &models.Quote{Symbol: "AAPL", Price: 100})

	if _, ok := cache.Get("AAPL"); !ok {
		t.Fatal("Get() miss immediately after Set()")
	}

	now = now.Add(59 * time.Second)
	if _, ok := cache.Get("AAPL"); !ok {
		t.Error("Get() miss before TTL elapsed")
	}

	now = now.Add(2 * time.Second)
	if _, ok := cache.Get("AAPL"); ok {
		t.Error("Get() hit after TTL elapsed")
	}
}

func TestYahooHistory(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v8/finance/chart/AAPL") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("interval") != "1d" {
			t.Errorf("interval = %q, want 1d", q.Get("interval"))
		}
		fmt.Fprint(w, chartJSON)
	})

	series, err := y.History(context.Background(), "AAPL", "2024-01-01", "2024-01-10")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	// Third bar has a null close and is dropped.
	if series.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", series.Len())
	}
	if series.Start != "2024-01-01" || series.End != "2024-01-10" {
		t.Errorf("range = %s..%s, want requested range", series.Start, series.End)
	}
	first := series.Candles[0]
	if first.Close != 185.6 || first.Volume != 52000000 {
		t.Errorf("first candle = %+v", first)
	}
	if first.AdjClose != 185.1 {
		t.Errorf("AdjClose = %v, want 185.1", first.AdjClose)
	}
}

func TestYahooHistoryInvalidRange(t *testing.T) {
	y := NewYahoo()

	tests := []struct {
		name       string
		start, end string
	}{
		{"bad start", "not-a-date", "2024-01-10"},
		{"bad end", "2024-01-01", "10/01/2024"},
		{"inverted", "2024-01-10", "2024-01-01"},
		{"zero width", "2024-01-01", "2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := y.History(context.Background(), "AAPL", tt.start, tt.end)
			if !errors.Is(err, ErrInvalidRange) {
				t.Errorf("History() error = %v, want ErrInvalidRange", err)
			}
		})
	}
}

func TestYahooHistoryHTTPError(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	_, err := y.History(context.Background(), "NOPE", "2024-01-01", "2024-01-10")
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("History() error = %v, want *ErrHTTP", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", httpErr.StatusCode)
	}
}

func TestRateLimiterContextCancel(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
}
