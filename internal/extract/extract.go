// Package extract turns free-form user text into an ordered, deduplicated
// list of candidate ticker symbols using regex heuristics and a bilingual
// stop-word filter.
package extract

import (
	"regexp"
	"strings"
)

// MaxSymbols is the maximum number of symbols returned per extraction.
const MaxSymbols = 5

var (
	// explicitRe catches punctuated ticker forms: $AAPL, BTC-USD, AAPL.SA, ^GSPC.
	explicitRe = regexp.MustCompile(`(?:\$\s*)?(\^?[A-Z]{1,6}(?:[.-][A-Z]{1,6})?)`)

	// simpleRe catches bare runs of 2-5 uppercase letters (plain tickers).
	simpleRe = regexp.MustCompile(`\b[A-Z]{2,5}\b`)
)

// stopWords lists English and Portuguese function words plus finance filler
// words that would otherwise be mistaken for tickers. The list is a fixed
// fixture; extending it changes extraction behavior.
var stopWords = map[string]struct{}{
	"AND": {}, "OR": {}, "THE": {}, "NEWS": {}, "STOCK": {}, "PRICE": {},
	"TODAY": {}, "WITH": {}, "ABOUT": {}, "WHAT": {}, "TELL": {}, "ME": {},
	"IS": {}, "ARE": {}, "OF": {}, "FOR": {}, "HOW": {}, "WHY": {},
	"THIS": {}, "THAT": {},
	"COMO": {}, "QUAL": {}, "ESTA": {}, "SOBRE": {},
	"QUE": {}, "PODE": {}, "DISSE": {}, "DA": {}, "DE": {}, "DO": {},
	"DAS": {}, "DOS": {}, "EM": {}, "NO": {}, "NA": {}, "NOS": {}, "NAS": {},
	"UM": {}, "UMA": {}, "PARA": {}, "POR": {}, "COM": {},
	"ACOES": {}, "AÇÃO": {}, "ATIVO": {}, "ATIVOS": {}, "EMPRESA": {},
	"PRECO": {}, "PREÇO": {}, "HOJE": {},
}

// Symbols extracts up to MaxSymbols candidate ticker symbols from text.
//
// The pattern passes run case-sensitively over the trimmed input, so tickers
// the user deliberately capitalized ("AAPL", "$TSLA", "BTC-USD") are picked
// out of mixed-case prose without ordinary words leaking in. Input that
// carries no uppercase letters at all (e.g. "price of aapl") is upper-cased
// before matching, so lowercase tickers still match.
//
// Candidates are filtered through the stop-word set and the acceptance rule,
// deduplicated preserving first-seen order (explicit-pattern hits before
// simple-word hits), and truncated to MaxSymbols.
func Symbols(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !strings.ContainsAny(text, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		text = strings.ToUpper(text)
	}

	out := filter(scan(text))
	if len(out) > MaxSymbols {
		out = out[:MaxSymbols]
	}
	return out
}

// scan runs both pattern passes and returns raw candidates in match order,
// explicit-pattern hits first. Explicit matches must cover a whole
// word-delimited run, so "INFLATION" does not chunk into "INFLAT" and "ION".
// Simple-word matches that fall inside the span of an explicit match are
// suppressed, so "BTC-USD" does not additionally yield "BTC" and "USD".
func scan(text string) []string {
	var raw []string
	var spans [][2]int
	for _, m := range explicitRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > 0 && isWordChar(text[m[0]-1]) {
			continue
		}
		if m[3] < len(text) && isWordChar(text[m[3]]) {
			continue
		}
		raw = append(raw, text[m[2]:m[3]])
		spans = append(spans, [2]int{m[0], m[1]})
	}
	for _, loc := range simpleRe.FindAllStringIndex(text, -1) {
		if overlapsAny(spans, loc[0], loc[1]) {
			continue
		}
		raw = append(raw, text[loc[0]:loc[1]])
	}
	return raw
}

// isWordChar mirrors the \b word-character class for the boundary check.
func isWordChar(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}

// overlapsAny reports whether [start, end) intersects any of the spans.
func overlapsAny(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}

// filter applies stop-word rejection, the acceptance rule, and ordered
// deduplication to raw candidates.
func filter(raw []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(strings.ReplaceAll(c, "$", ""))
		if c == "" {
			continue
		}
		if _, stop := stopWords[c]; stop {
			continue
		}
		if !acceptable(c) {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// acceptable reports whether a candidate looks like a ticker: it carries an
// index marker or exchange/asset-class punctuation, or is a bare word of
// 2-5 letters.
func acceptable(c string) bool {
	if strings.HasPrefix(c, "^") {
		return true
	}
	if strings.ContainsAny(c, ".-") {
		return true
	}
	return len(c) >= 2 && len(c) <= 5
}
