// Package i18n holds the bilingual (Portuguese/English) text fixture used
// for user-facing labels, the LLM system prompt, and context section
// headers. The active language changes labels and the system-prompt
// language directive only — never extraction or assembly logic.
package i18n

import (
	"fmt"
	"time"
)

// Language identifies a supported display language.
type Language string

const (
	Portuguese Language = "pt"
	English    Language = "en"
)

// Default is the language used when none is configured.
const Default = Portuguese

// Valid reports whether l is a supported language.
func (l Language) Valid() bool { return l == Portuguese || l == English }

// bundle holds every translated string for one language.
type bundle struct {
	currentPrices string
	recentNews    string
	errorFormat   string
	systemPrompt  string
	dataContext   string
	configureKey  string
	emptySeries   string
	answerHeader  string
	dataLoaded    string
	errorLoading  string
	lastClose     string
	periodChange  string
	maximum       string
	minimum       string
}

var bundles = map[Language]bundle{
	Portuguese: {
		currentPrices: "**Preços Atuais:**",
		recentNews:    "**Notícias Recentes:**",
		errorFormat:   "Erro: %s",
		systemPrompt: `Você é Arash+, um assistente financeiro especializado.
Data atual: %s.
Seja direto, técnico e baseie suas respostas nos dados fornecidos.
Sempre cite as fontes quando usar informações externas.
Responda em português.`,
		dataContext: `**Dados do ativo %s:**
- Período: %s até %s
- Preço atual: $%.2f
- Variação: %.2f%%
- Média: $%.2f
- Volatilidade (std): $%.2f

Últimos 5 dias:
%s`,
		configureKey: "Configure sua API key",
		emptySeries:  "Não foi possível obter dados para este ticker e período",
		answerHeader: "### Resposta:",
		dataLoaded:   "Dados carregados: %d registros",
		errorLoading: "Não foi possível obter dados para este ticker e período",
		lastClose:    "Último Fechamento",
		periodChange: "Variação Período",
		maximum:      "Máxima",
		minimum:      "Mínima",
	},
	English: {
		currentPrices: "**Current Prices:**",
		recentNews:    "**Recent News:**",
		errorFormat:   "Error: %s",
		systemPrompt: `You are Arash+, a specialized financial assistant.
Current date: %s.
Be direct, technical and base your answers on the provided data.
Always cite sources when using external information.
Respond in English.`,
		dataContext: `**Asset data for %s:**
- Period: %s to %s
- Current price: $%.2f
- Change: %.2f%%
- Average: $%.2f
- Volatility (std): $%.2f

Last 5 days:
%s`,
		configureKey: "Configure your API key",
		emptySeries:  "Unable to fetch data for this ticker and period",
		answerHeader: "### Answer:",
		dataLoaded:   "Data loaded: %d records",
		errorLoading: "Unable to fetch data for this ticker and period",
		lastClose:    "Last Close",
		periodChange: "Period Change",
		maximum:      "Maximum",
		minimum:      "Minimum",
	},
}

// get returns the bundle for l, falling back to the default language.
func get(l Language) bundle {
	if b, ok := bundles[l]; ok {
		return b
	}
	return bundles[Default]
}

// CurrentPrices returns the prices-section header.
func CurrentPrices(l Language) string { return get(l).currentPrices }

// RecentNews returns the news-section header.
func RecentNews(l Language) string { return get(l).recentNews }

// ErrorText formats an error message with the localized error prefix.
func ErrorText(l Language, err error) string {
	return fmt.Sprintf(get(l).errorFormat, err)
}

// ErrorPrefix returns the localized error prefix without a message, for
// callers that need to detect degraded replies.
func ErrorPrefix(l Language) string {
	return fmt.Sprintf(get(l).errorFormat, "")
}

// SystemPrompt returns the assistant system prompt for the given date.
// The template is parameterized only by the current date and the language.
func SystemPrompt(l Language, date time.Time) string {
	return fmt.Sprintf(get(l).systemPrompt, date.Format("2006-01-02"))
}

// DataContext formats the analysis data-context block.
func DataContext(l Language, symbol, start, end string, price, change, mean, std float64, recent string) string {
	return fmt.Sprintf(get(l).dataContext, symbol, start, end, price, change, mean, std, recent)
}

// ConfigureKey returns the missing-credential message.
func ConfigureKey(l Language) string { return get(l).configureKey }

// EmptySeries returns the empty-historical-series error message.
func EmptySeries(l Language) string { return get(l).emptySeries }

// AnswerHeader returns the analysis answer header.
func AnswerHeader(l Language) string { return get(l).answerHeader }

// DataLoaded formats the records-loaded confirmation.
func DataLoaded(l Language, count int) string {
	return fmt.Sprintf(get(l).dataLoaded, count)
}

// MetricLabels returns the four analysis metric labels in display order:
// last close, period change, maximum, minimum.
func MetricLabels(l Language) [4]string {
	b := get(l)
	return [4]string{b.lastClose, b.periodChange, b.maximum, b.minimum}
}
