package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>"AAPL stock" - Google News</title>
    <item>
      <title>Apple shares climb after earnings beat</title>
      <link>https://example.com/apple-earnings</link>
      <description>&lt;p&gt;Apple reported &lt;b&gt;record&lt;/b&gt; revenue.&lt;/p&gt;</description>
      <pubDate>Tue, 02 Jan 2024 14:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Analysts raise Apple price targets</title>
      <link>https://example.com/apple-targets</link>
      <description>Several banks lifted targets.</description>
      <pubDate>Tue, 02 Jan 2024 12:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Third headline</title>
      <link>https://example.com/third</link>
      <description>More coverage.</description>
    </item>
    <item>
      <title>Fourth headline</title>
      <link>https://example.com/fourth</link>
      <description>Even more coverage.</description>
    </item>
  </channel>
</rss>`

func newTestSearcher(t *testing.T, handler http.HandlerFunc) *GoogleNews {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGoogleNews(WithBaseURL(srv.URL))
}

func TestSearch(t *testing.T) {
	g := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "AAPL stock" {
			t.Errorf("q = %q, want %q", got, "AAPL stock")
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFixture)
	})

	items, err := g.Search(context.Background(), "AAPL stock", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3 (capped)", len(items))
	}
	if items[0].Title != "Apple shares climb after earnings beat" {
		t.Errorf("first title = %q", items[0].Title)
	}
	if items[0].Snippet != "Apple reported record revenue." {
		t.Errorf("Snippet = %q, want HTML stripped", items[0].Snippet)
	}
	if items[0].PublishedAt.IsZero() {
		t.Error("PublishedAt is zero, want parsed pubDate")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	g := NewGoogleNews()
	items, err := g.Search(context.Background(), "   ", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if items != nil {
		t.Errorf("items = %v, want nil for blank query", items)
	}
}

func TestSearchCached(t *testing.T) {
	var calls int
	g := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, rssFixture)
	})

	for i := 0; i < 3; i++ {
		if _, err := g.Search(context.Background(), "AAPL stock", 3); err != nil {
			t.Fatalf("Search() #%d error = %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (cached)", calls)
	}
}

func TestSearchUpstreamFailure(t *testing.T) {
	g := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
	})

	if _, err := g.Search(context.Background(), "AAPL stock", 3); err == nil {
		t.Error("Search() error = nil, want upstream failure surfaced")
	}
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"<p>hello <b>world</b></p>", "hello world"},
		{"<a href=\"x\">link</a> tail ", "link tail"},
	}
	for _, tt := range tests {
		if got := cleanHTML(tt.in); got != tt.want {
			t.Errorf("cleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResultCacheExpiry(t *testing.T) {
	c := newResultCache(time.Minute)
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.set("k", nil)
	if _, ok := c.get("k"); !ok {
		t.Fatal("get() miss immediately after set()")
	}
	now = now.Add(61 * time.Second)
	if _, ok := c.get("k"); ok {
		t.Error("get() hit after TTL elapsed")
	}
}
