package chart

import (
	"strings"
	"testing"
	"time"

	"github.com/arashplus/arash/pkg/models"
)

func testSeries(n int) *models.Series {
	s := &models.Series{Symbol: "AAPL", Start: "2024-01-01", End: "2024-02-01"}
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		base := 100 + float64(i)
		s.Candles = append(s.Candles, models.Candle{
			Date:   day.AddDate(0, 0, i),
			Open:   base,
			High:   base + 3,
			Low:    base - 2,
			Close:  base + float64(i%3) - 1, // mix of up and down days
			Volume: int64(1000 * (i + 1)),
		})
	}
	return s
}

func TestCandlestick(t *testing.T) {
	svg := Candlestick(testSeries(20), DefaultConfig())

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("output is not a complete SVG document")
	}
	if !strings.Contains(svg, `xmlns="http://www.w3.org/2000/svg"`) {
		t.Error("missing SVG namespace")
	}
	if !strings.Contains(svg, "AAPL 2024-01-01 to 2024-02-01") {
		t.Error("missing default title")
	}
	// One wick line per candle plus six dashed grid lines.
	if n := strings.Count(svg, "<line"); n < 20 {
		t.Errorf("line count = %d, want at least one wick per candle", n)
	}
	// Candle bodies, volume bars, and the background rect.
	if n := strings.Count(svg, "<rect"); n < 41 {
		t.Errorf("rect count = %d, want bodies and volume bars for 20 candles", n)
	}
	if !strings.Contains(svg, bullColor) || !strings.Contains(svg, bearColor) {
		t.Error("expected both bullish and bearish candles in mixed series")
	}
}

func TestCandlestickDeterministic(t *testing.T) {
	s := testSeries(10)
	if Candlestick(s, DefaultConfig()) != Candlestick(s, DefaultConfig()) {
		t.Error("same series produced different SVG")
	}
}

func TestCandlestickEmpty(t *testing.T) {
	svg := Candlestick(nil, DefaultConfig())
	if !strings.Contains(svg, "No data available") {
		t.Errorf("empty chart = %q, want placeholder", svg)
	}
	svg = Candlestick(&models.Series{Symbol: "AAPL"}, Config{})
	if !strings.Contains(svg, "No data available") {
		t.Errorf("empty series chart missing placeholder")
	}
}

func TestCandlestickTitleEscaped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Title = `A&B <test> "quoted"`
	svg := Candlestick(testSeries(3), cfg)
	if strings.Contains(svg, "<test>") {
		t.Error("title not XML-escaped")
	}
	if !strings.Contains(svg, "A&amp;B &lt;test&gt;") {
		t.Error("escaped title missing")
	}
}

func TestCandlestickFlatSeries(t *testing.T) {
	s := &models.Series{Symbol: "FLAT", Start: "2024-01-01", End: "2024-01-05"}
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		s.Candles = append(s.Candles, models.Candle{
			Date: day.AddDate(0, 0, i), Open: 50, High: 50, Low: 50, Close: 50,
		})
	}
	// Zero price range and zero volume must not divide by zero.
	svg := Candlestick(s, DefaultConfig())
	if !strings.HasSuffix(svg, "</svg>") {
		t.Error("flat series did not render")
	}
	if strings.Contains(svg, "NaN") {
		t.Error("NaN leaked into SVG coordinates")
	}
}
