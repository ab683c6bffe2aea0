// Package chart renders historical OHLCV series as SVG candlestick charts.
// Pure Go, no rendering dependencies; the output embeds directly in HTML.
package chart

import (
	"fmt"
	"strings"

	"github.com/arashplus/arash/pkg/models"
)

// Config holds rendering parameters.
type Config struct {
	Width        int    // SVG width in pixels
	Height       int    // SVG height in pixels
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	BgColor      string
	GridColor    string
	TextColor    string
	FontSize     int
	Title        string
}

// DefaultConfig returns sensible defaults for chart rendering.
func DefaultConfig() Config {
	return Config{
		Width:        900,
		Height:       500,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 50,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

const (
	bullColor   = "#26a69a"
	bearColor   = "#ef5350"
	bullVolFill = "#c8e6c9"
	bearVolFill = "#ffcdd2"
)

// volumeShare is the fraction of the plot height given to the volume pane.
const volumeShare = 0.22

// Candlestick renders a two-pane chart: candles with wicks in the upper
// pane, volume bars in the lower. An empty series yields a placeholder SVG.
func Candlestick(series *models.Series, cfg Config) string {
	if series == nil || series.Len() == 0 {
		return emptySVG(cfg, "No data available")
	}
	if cfg.Width == 0 {
		cfg = DefaultConfig()
	}
	if cfg.Title == "" {
		cfg.Title = fmt.Sprintf("%s %s to %s", series.Symbol, series.Start, series.End)
	}

	bars := series.Candles
	n := len(bars)

	px := cfg.MarginLeft
	py := cfg.MarginTop
	pw := cfg.Width - cfg.MarginLeft - cfg.MarginRight
	ph := cfg.Height - cfg.MarginTop - cfg.MarginBottom

	volH := int(float64(ph) * volumeShare)
	priceH := ph - volH - 10 // gap between panes

	// Price range with 5% padding.
	minPrice, maxPrice := bars[0].Low, bars[0].High
	for _, b := range bars {
		if b.Low < minPrice {
			minPrice = b.Low
		}
		if b.High > maxPrice {
			maxPrice = b.High
		}
	}
	priceRange := maxPrice - minPrice
	if priceRange < 0.01 {
		priceRange = 1
	}
	minPrice -= priceRange * 0.05
	maxPrice += priceRange * 0.05
	priceRange = maxPrice - minPrice

	var maxVol int64
	for _, b := range bars {
		if b.Volume > maxVol {
			maxVol = b.Volume
		}
	}

	slot := float64(pw) / float64(n)
	bodyW := slot * 0.7
	if bodyW > 12 {
		bodyW = 12
	}

	priceToY := func(p float64) float64 {
		ratio := (p - minPrice) / priceRange
		return float64(py+priceH) - ratio*float64(priceH)
	}
	centerX := func(i int) float64 {
		return float64(px) + float64(i)*slot + slot/2
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor)
	fmt.Fprintf(&sb, `<text x="%d" y="22" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title))

	// Price grid and axis labels.
	gridLines := 6
	for i := 0; i <= gridLines; i++ {
		price := minPrice + priceRange*float64(i)/float64(gridLines)
		y := priceToY(price)
		fmt.Fprintf(&sb, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor)
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%.2f</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, price)
	}

	// Volume pane.
	volTop := py + priceH + 10
	if maxVol > 0 {
		for i, b := range bars {
			vh := float64(b.Volume) / float64(maxVol) * float64(volH)
			fill := bullVolFill
			if b.Close < b.Open {
				fill = bearVolFill
			}
			fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" opacity="0.8"/>`,
				centerX(i)-bodyW/2, float64(volTop+volH)-vh, bodyW, vh, fill)
		}
	}

	// Candles.
	for i, b := range bars {
		cx := centerX(i)
		color := bullColor
		if b.Close < b.Open {
			color = bearColor
		}

		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`,
			cx, priceToY(b.High), cx, priceToY(b.Low), color)

		top := priceToY(b.Open)
		bottom := priceToY(b.Close)
		if bottom < top {
			top, bottom = bottom, top
		}
		h := bottom - top
		if h < 1 {
			h = 1
		}
		fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`,
			cx-bodyW/2, top, bodyW, h, color)
	}

	// Date labels along the bottom.
	interval := n / 6
	if interval < 1 {
		interval = 1
	}
	labelY := volTop + volH + 18
	for i := 0; i < n; i += interval {
		cx := centerX(i)
		label := bars[i].Date.Format("02 Jan")
		fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle" transform="rotate(-45,%.1f,%d)">%s</text>`,
			cx, labelY, cfg.FontSize-1, cfg.TextColor, cx, labelY, label)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func svgHeader(cfg Config) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg Config, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
