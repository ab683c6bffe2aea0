// Package assistant implements the conversational core: ticker extraction,
// market-data and news gathering, context assembly, and LLM calls.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arashplus/arash/internal/extract"
	"github.com/arashplus/arash/internal/i18n"
	"github.com/arashplus/arash/internal/llm"
	"github.com/arashplus/arash/internal/marketdata"
	"github.com/arashplus/arash/internal/news"
	"github.com/arashplus/arash/pkg/models"
)

// Defaults for LLM generation.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// quoteConcurrency bounds the parallel quote fan-out per turn.
const quoteConcurrency = 4

// Assistant wires the extraction, data, news, and LLM layers together.
type Assistant struct {
	provider    llm.Provider
	market      marketdata.Gateway
	news        news.Searcher
	model       string
	temperature float64
	maxTokens   int
	now         func() time.Time
}

// AssistantOption configures an Assistant.
type AssistantOption func(*Assistant)

// WithModel overrides the provider's default model.
func WithModel(model string) AssistantOption {
	return func(a *Assistant) { a.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) AssistantOption {
	return func(a *Assistant) { a.temperature = t }
}

// WithMaxTokens sets the completion token cap.
func WithMaxTokens(n int) AssistantOption {
	return func(a *Assistant) { a.maxTokens = n }
}

// WithClock injects the time source used for the system prompt date.
func WithClock(now func() time.Time) AssistantOption {
	return func(a *Assistant) { a.now = now }
}

// New creates an Assistant.
func New(provider llm.Provider, market marketdata.Gateway, searcher news.Searcher, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		provider:    provider,
		market:      market,
		news:        searcher,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Chat runs one conversation turn: extract tickers from the message, gather
// quotes and headlines for them, assemble the context block, and ask the
// LLM. Data failures degrade to a smaller context; an LLM failure degrades
// to a localized error reply. Both turns are appended to the session.
func (a *Assistant) Chat(ctx context.Context, sess *Session, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("empty message")
	}
	lang := sess.Language()

	symbols := extract.Symbols(message)
	quotes := a.fetchQuotes(ctx, symbols)
	headlines := a.fetchHeadlines(ctx, symbols)

	contextBlock := BuildChatContext(lang, quotes, headlines)

	prompt := message
	if contextBlock != "" {
		prompt = contextBlock + "\n\n" + message
	}

	answer := a.complete(ctx, lang, prompt)
	sess.append(models.RoleUser, message)
	sess.append(models.RoleAssistant, answer)
	return answer, nil
}

// LoadAnalysis fetches the historical series for a symbol and date range
// and installs it as the session's analysis subject, replacing any prior
// series wholesale.
func (a *Assistant) LoadAnalysis(ctx context.Context, sess *Session, symbol, start, end string) (*models.Series, error) {
	series, err := a.market.History(ctx, strings.ToUpper(strings.TrimSpace(symbol)), start, end)
	if err != nil {
		return nil, err
	}
	sess.setAnalysis(series)
	return series, nil
}

// AskAnalysis answers a question about the session's loaded series. The
// series data is injected as context; an LLM failure degrades to a
// localized error reply.
func (a *Assistant) AskAnalysis(ctx context.Context, sess *Session, question string) (string, error) {
	lang := sess.Language()
	series := sess.Analysis()
	if series == nil {
		return "", fmt.Errorf("%s", i18n.EmptySeries(lang))
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question")
	}

	contextBlock, err := BuildAnalysisContext(lang, series)
	if err != nil {
		return "", err
	}

	answer := a.complete(ctx, lang, contextBlock+"\n\n"+question)
	sess.append(models.RoleUser, question)
	sess.append(models.RoleAssistant, answer)
	return answer, nil
}

// Metrics summarizes a loaded series for display.
type Metrics struct {
	LastClose    float64 `json:"last_close"`
	PeriodChange float64 `json:"period_change"` // percent, close to close
	High         float64 `json:"high"`          // max of daily highs
	Low          float64 `json:"low"`           // min of daily lows
	Records      int     `json:"records"`
}

// AnalysisMetrics computes the headline metrics of a series.
func AnalysisMetrics(series *models.Series) Metrics {
	m := Metrics{Records: series.Len()}
	if series.Len() == 0 {
		return m
	}
	closes := series.Closes()
	m.LastClose = closes[len(closes)-1]
	m.PeriodChange = percentChange(closes[0], closes[len(closes)-1])
	m.High = series.Candles[0].High
	m.Low = series.Candles[0].Low
	for _, c := range series.Candles[1:] {
		if c.High > m.High {
			m.High = c.High
		}
		if c.Low < m.Low {
			m.Low = c.Low
		}
	}
	return m
}

// complete asks the provider and converts failure into a localized reply.
func (a *Assistant) complete(ctx context.Context, lang i18n.Language, prompt string) string {
	messages := []llm.Message{
		llm.SystemMessage(i18n.SystemPrompt(lang, a.now())),
		llm.UserMessage(prompt),
	}
	resp, err := a.provider.Chat(ctx, messages, &llm.ChatOptions{
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return i18n.ErrorText(lang, err)
	}
	return resp.Content
}

// fetchQuotes resolves quotes for the symbols concurrently, preserving
// extraction order. A failed lookup leaves a nil slot; the context builder
// skips those.
func (a *Assistant) fetchQuotes(ctx context.Context, symbols []string) []*models.Quote {
	if len(symbols) == 0 {
		return nil
	}
	quotes := make([]*models.Quote, len(symbols))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(quoteConcurrency)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			q, err := a.market.Quote(ctx, symbol)
			if err == nil {
				quotes[i] = q
			}
			return nil // lookups degrade, never abort the turn
		})
	}
	g.Wait()
	return quotes
}

// fetchHeadlines searches news for the extracted symbols. Failures degrade
// to no headlines.
func (a *Assistant) fetchHeadlines(ctx context.Context, symbols []string) []models.NewsItem {
	if len(symbols) == 0 || a.news == nil {
		return nil
	}
	query := strings.Join(symbols, " ") + " stock"
	items, err := a.news.Search(ctx, query, maxNewsInContext)
	if err != nil {
		return nil
	}
	return items
}
