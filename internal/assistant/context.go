package assistant

import (
	"fmt"
	"strings"

	"github.com/arashplus/arash/internal/i18n"
	"github.com/arashplus/arash/pkg/models"
)

// maxNewsInContext caps how many headlines are injected per turn.
const maxNewsInContext = 3

// recentRows is how many trailing candles the analysis context shows.
const recentRows = 5

// BuildChatContext assembles the grounding block injected before a chat
// question. Quotes appear in the order given (the extraction order); quotes
// with a zero price are skipped. Headlines are capped at maxNewsInContext.
// With nothing to show the result is the empty string.
func BuildChatContext(lang i18n.Language, quotes []*models.Quote, headlines []models.NewsItem) string {
	var sections []string

	var prices []string
	for _, q := range quotes {
		if q == nil || q.Price == 0 {
			continue
		}
		name := q.Name
		if name == "" {
			name = q.Symbol
		}
		prices = append(prices, fmt.Sprintf("- %s (%s): %.2f %s", q.Symbol, name, q.Price, q.Currency))
	}
	if len(prices) > 0 {
		sections = append(sections, i18n.CurrentPrices(lang)+"\n"+strings.Join(prices, "\n"))
	}

	if len(headlines) > maxNewsInContext {
		headlines = headlines[:maxNewsInContext]
	}
	var lines []string
	for _, h := range headlines {
		if h.Title == "" || h.URL == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- [%s](%s)", h.Title, h.URL))
	}
	if len(lines) > 0 {
		sections = append(sections, i18n.RecentNews(lang)+"\n"+strings.Join(lines, "\n"))
	}

	return strings.Join(sections, "\n\n")
}

// BuildAnalysisContext formats the loaded series into the data-context block
// used to ground analysis questions. The change is measured close-to-close
// over the whole series and the deviation is the sample standard deviation
// of the closes.
func BuildAnalysisContext(lang i18n.Language, series *models.Series) (string, error) {
	if series == nil || series.Len() == 0 {
		return "", fmt.Errorf("%s", i18n.EmptySeries(lang))
	}

	closes := series.Closes()
	first := closes[0]
	last := closes[len(closes)-1]

	return i18n.DataContext(
		lang,
		series.Symbol,
		series.Start,
		series.End,
		last,
		percentChange(first, last),
		mean(closes),
		sampleStd(closes),
		formatRecent(series.Tail(recentRows)),
	), nil
}

// formatRecent renders trailing candles as aligned rows, oldest first.
func formatRecent(candles []models.Candle) string {
	var b strings.Builder
	b.WriteString("date        open      high      low       close     volume\n")
	for i, c := range candles {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %-8.2f  %-8.2f  %-8.2f  %-8.2f  %d",
			c.Date.Format("2006-01-02"), c.Open, c.High, c.Low, c.Close, c.Volume)
	}
	return b.String()
}
