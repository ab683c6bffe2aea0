package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arashplus/arash/pkg/models"
)

// DefaultQuoteTTL bounds how stale a memoized quote may be. Multiple symbols
// resolved in quick succession within a session reuse the cached value.
const DefaultQuoteTTL = 60 * time.Second

// Yahoo implements Gateway using the Yahoo Finance v7/v8 JSON APIs.
type Yahoo struct {
	baseURL string
	client  *http.Client
	cache   *QuoteCache
	limiter *RateLimiter
}

// YahooOption configures the Yahoo gateway.
type YahooOption func(*Yahoo)

// WithYahooBaseURL points the gateway at a different host (used in tests).
func WithYahooBaseURL(u string) YahooOption {
	return func(y *Yahoo) { y.baseURL = strings.TrimRight(u, "/") }
}

// WithYahooHTTPClient sets a custom HTTP client.
func WithYahooHTTPClient(c *http.Client) YahooOption {
	return func(y *Yahoo) { y.client = c }
}

// WithQuoteTTL overrides the quote memoization TTL.
func WithQuoteTTL(ttl time.Duration) YahooOption {
	return func(y *Yahoo) { y.cache = NewQuoteCache(ttl) }
}

// NewYahoo creates a Yahoo Finance gateway.
func NewYahoo(opts ...YahooOption) *Yahoo {
	y := &Yahoo{
		baseURL: "https://query1.finance.yahoo.com",
		client:  HTTPClient,
		cache:   NewQuoteCache(DefaultQuoteTTL),
		limiter: NewRateLimiter(5, time.Second), // 5 req/s
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// --- Yahoo Finance API types ---

type yhQuoteResponse struct {
	QuoteResponse struct {
		Result []yhQuoteResult `json:"result"`
		Error  *yhError        `json:"error"`
	} `json:"quoteResponse"`
}

type yhQuoteResult struct {
	Symbol             string  `json:"symbol"`
	ShortName          string  `json:"shortName"`
	LongName           string  `json:"longName"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	RegularMarketTime  int64   `json:"regularMarketTime"`
}

type yhChartResponse struct {
	Chart struct {
		Result []yhChartResult `json:"result"`
		Error  *yhError        `json:"error"`
	} `json:"chart"`
}

type yhChartResult struct {
	Meta       yhChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yhIndicators `json:"indicators"`
}

type yhChartMeta struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

type yhIndicators struct {
	Quote    []yhOHLCV    `json:"quote"`
	AdjClose []yhAdjClose `json:"adjclose"`
}

type yhOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type yhAdjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}

type yhError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Gateway implementation ---

// Quote returns the latest price snapshot for a symbol. Lookups are memoized
// for the cache TTL; a returned quote may be up to that much stale.
func (y *Yahoo) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	if cached, ok := y.cache.Get(symbol); ok {
		return cached, nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", y.baseURL, url.QueryEscape(symbol))
	body, err := doGet(ctx, y.client, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yhQuoteResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yahoo quote: %w", err)
	}
	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo API error: %s", resp.QuoteResponse.Error.Description)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	r := resp.QuoteResponse.Result[0]
	if r.RegularMarketPrice == 0 {
		return nil, fmt.Errorf("%w: %s has no price", ErrSymbolNotFound, symbol)
	}

	currency := r.Currency
	if currency == "" {
		currency = "USD"
	}
	name := coalesce(r.ShortName, r.LongName, r.Symbol)

	q := &models.Quote{
		Symbol:    symbol,
		Name:      name,
		Price:     r.RegularMarketPrice,
		Currency:  currency,
		Timestamp: time.Unix(r.RegularMarketTime, 0).UTC(),
	}
	y.cache.Set(symbol, q)
	return q, nil
}

// History returns daily OHLCV candles for [start, end). The raw chart payload
// is converted to a RawTable and passed through Normalize, so the ordering,
// grouping, and column-name guarantees hold for every series handed out.
func (y *Yahoo) History(ctx context.Context, symbol, start, end string) (*models.Series, error) {
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("%w: start date %q is not YYYY-MM-DD", ErrInvalidRange, start)
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("%w: end date %q is not YYYY-MM-DD", ErrInvalidRange, end)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: %s to %s is empty", ErrInvalidRange, start, end)
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		y.baseURL, url.PathEscape(symbol), from.Unix(), to.Unix())

	body, err := doGet(ctx, y.client, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yhChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yahoo chart: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	table := chartToTable(symbol, resp.Chart.Result)
	series, err := Normalize(table)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", symbol, err)
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("%w: %s %s to %s", ErrEmptySeries, symbol, start, end)
	}
	series.Start = start
	series.End = end
	return series, nil
}

// chartToTable converts Yahoo chart results into a RawTable. Each chart
// result becomes one symbol-qualified group; nil entries (market holidays)
// are carried as NaN and dropped during normalization.
func chartToTable(symbol string, results []yhChartResult) RawTable {
	table := RawTable{Symbol: symbol}
	for _, res := range results {
		group := RawGroup{
			Symbol:  coalesce(res.Meta.Symbol, symbol),
			Dates:   make([]string, len(res.Timestamp)),
			Columns: map[string][]float64{},
		}
		for i, ts := range res.Timestamp {
			group.Dates[i] = time.Unix(ts, 0).UTC().Format("2006-01-02")
		}

		if len(res.Indicators.Quote) > 0 {
			q := res.Indicators.Quote[0]
			group.Columns["Open"] = floatColumn(q.Open, len(res.Timestamp))
			group.Columns["High"] = floatColumn(q.High, len(res.Timestamp))
			group.Columns["Low"] = floatColumn(q.Low, len(res.Timestamp))
			group.Columns["Close"] = floatColumn(q.Close, len(res.Timestamp))
			group.Columns["Volume"] = intColumn(q.Volume, len(res.Timestamp))
		}
		if len(res.Indicators.AdjClose) > 0 {
			group.Columns["Adj Close"] = floatColumn(res.Indicators.AdjClose[0].AdjClose, len(res.Timestamp))
		}
		table.Groups = append(table.Groups, group)
	}
	return table
}

func floatColumn(vals []*float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i < len(vals) && vals[i] != nil {
			out[i] = *vals[i]
		} else {
			out[i] = nan
		}
	}
	return out
}

func intColumn(vals []*int64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i < len(vals) && vals[i] != nil {
			out[i] = float64(*vals[i])
		} else {
			out[i] = 0
		}
	}
	return out
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
