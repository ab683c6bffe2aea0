package marketdata

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/arashplus/arash/pkg/models"
)

// nan marks a missing cell in a raw column.
var nan = math.NaN()

// RawTable is an upstream tabular payload before normalization. Sources that
// return per-symbol column groups (one group per requested symbol) populate
// Groups; single-symbol sources produce exactly one group.
type RawTable struct {
	Symbol string
	Groups []RawGroup
}

// RawGroup is one symbol-qualified block of columns sharing a date axis.
type RawGroup struct {
	Symbol  string
	Dates   []string // YYYY-MM-DD, any order, may repeat
	Columns map[string][]float64
}

// MissingFieldsError reports which OHLCV columns a raw payload lacked,
// alongside the columns it did carry.
type MissingFieldsError struct {
	Symbol  string
	Missing []string
	Present []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("incomplete data for %s: missing columns %s (have %s)",
		e.Symbol, strings.Join(e.Missing, ", "), strings.Join(e.Present, ", "))
}

// requiredColumns are the canonical column names a series must provide.
var requiredColumns = []string{"Open", "High", "Low", "Close", "Volume"}

// canonicalColumn maps upstream column-name variants to canonical names.
// Matching is case-insensitive with spaces and underscores ignored.
func canonicalColumn(name string) string {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "").Replace(name))
	switch key {
	case "open":
		return "Open"
	case "high":
		return "High"
	case "low":
		return "Low"
	case "close":
		return "Close"
	case "adjclose", "adjustedclose":
		return "Adj Close"
	case "volume":
		return "Volume"
	}
	return name
}

// Normalize flattens a raw table into an ordered Series. When the table
// carries multiple symbol groups only the first is used. Column names are
// unified to canonical form, rows with unparseable dates, a NaN close, or a
// negative price field are dropped, duplicate dates keep the last
// occurrence, and the result is sorted by strictly ascending date.
// Normalizing an already-normal table yields the same series.
func Normalize(table RawTable) (*models.Series, error) {
	if len(table.Groups) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySeries, table.Symbol)
	}
	group := table.Groups[0]

	columns := make(map[string][]float64, len(group.Columns))
	for name, vals := range group.Columns {
		columns[canonicalColumn(name)] = vals
	}

	var missing, present []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; ok {
			present = append(present, name)
		} else {
			missing = append(missing, name)
		}
	}
	if _, ok := columns["Adj Close"]; ok {
		present = append(present, "Adj Close")
	}
	if len(missing) > 0 {
		symbol := coalesce(group.Symbol, table.Symbol)
		return nil, &MissingFieldsError{Symbol: symbol, Missing: missing, Present: present}
	}

	byDate := make(map[string]models.Candle, len(group.Dates))
	for i, raw := range group.Dates {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			continue
		}
		closePrice := cell(columns["Close"], i)
		if math.IsNaN(closePrice) {
			continue
		}
		candle := models.Candle{
			Date:   date,
			Open:   zeroNaN(cell(columns["Open"], i)),
			High:   zeroNaN(cell(columns["High"], i)),
			Low:    zeroNaN(cell(columns["Low"], i)),
			Close:  closePrice,
			Volume: int64(zeroNaN(cell(columns["Volume"], i))),
		}
		if adj, ok := columns["Adj Close"]; ok {
			candle.AdjClose = zeroNaN(cell(adj, i))
		}
		// Prices are never negative; a negative value is corrupt upstream data.
		if candle.Open < 0 || candle.High < 0 || candle.Low < 0 || candle.Close < 0 || candle.AdjClose < 0 {
			continue
		}
		if candle.Volume < 0 {
			candle.Volume = 0
		}
		byDate[raw] = candle // last occurrence wins
	}

	candles := make([]models.Candle, 0, len(byDate))
	for _, c := range byDate {
		candles = append(candles, c)
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Date.Before(candles[j].Date)
	})

	series := &models.Series{
		Symbol:  coalesce(group.Symbol, table.Symbol),
		Candles: candles,
	}
	if len(candles) > 0 {
		series.Start = candles[0].Date.Format("2006-01-02")
		series.End = candles[len(candles)-1].Date.AddDate(0, 0, 1).Format("2006-01-02")
	}
	return series, nil
}

// TableFromSeries converts a series back to a single-group raw table.
func TableFromSeries(s *models.Series) RawTable {
	group := RawGroup{
		Symbol:  s.Symbol,
		Dates:   make([]string, s.Len()),
		Columns: map[string][]float64{},
	}
	open := make([]float64, s.Len())
	high := make([]float64, s.Len())
	low := make([]float64, s.Len())
	closes := make([]float64, s.Len())
	adj := make([]float64, s.Len())
	volume := make([]float64, s.Len())
	for i, c := range s.Candles {
		group.Dates[i] = c.Date.Format("2006-01-02")
		open[i] = c.Open
		high[i] = c.High
		low[i] = c.Low
		closes[i] = c.Close
		adj[i] = c.AdjClose
		volume[i] = float64(c.Volume)
	}
	group.Columns["Open"] = open
	group.Columns["High"] = high
	group.Columns["Low"] = low
	group.Columns["Close"] = closes
	group.Columns["Adj Close"] = adj
	group.Columns["Volume"] = volume
	return RawTable{Symbol: s.Symbol, Groups: []RawGroup{group}}
}

func cell(vals []float64, i int) float64 {
	if i >= len(vals) {
		return nan
	}
	return vals[i]
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
