// Package models defines the core data structures shared across Arash.
package models

import "time"

// Quote represents the latest price snapshot for a single symbol.
// Quotes are transient: they live for one chat turn and are never persisted.
type Quote struct {
	Symbol    string    `json:"symbol"`    // e.g., "AAPL", "BTC-USD", "^GSPC"
	Name      string    `json:"name"`      // display name, e.g., "Apple Inc."
	Price     float64   `json:"price"`     // last traded price
	Currency  string    `json:"currency"`  // 3-letter code, e.g., "USD"
	Timestamp time.Time `json:"timestamp"` // quote time as reported by the source
}

// NewsItem represents a single news search result.
type NewsItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Snippet     string    `json:"snippet"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// Candle represents one daily OHLCV bar of a historical series.
type Candle struct {
	Date     time.Time `json:"date"` // calendar date, midnight UTC
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close,omitempty"`
	Volume   int64     `json:"volume"`
}

// Series is an ordered-by-date historical OHLCV series for one symbol
// over a half-open [Start, End) date range. Dates are strictly increasing.
// A Series is replaced wholesale on reload, never mutated in place.
type Series struct {
	Symbol  string   `json:"symbol"`
	Start   string   `json:"start"` // YYYY-MM-DD
	End     string   `json:"end"`   // YYYY-MM-DD
	Candles []Candle `json:"candles"`
}

// Len returns the number of candles in the series.
func (s *Series) Len() int { return len(s.Candles) }

// Closes returns the close prices of the series, in date order.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Tail returns the last n candles of the series (all of them if n >= Len).
func (s *Series) Tail(n int) []Candle {
	if n >= len(s.Candles) {
		return s.Candles
	}
	return s.Candles[len(s.Candles)-n:]
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in a conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
