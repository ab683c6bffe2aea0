// Arash — conversational finance assistant
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arashplus/arash/api"
	"github.com/arashplus/arash/internal/assistant"
	"github.com/arashplus/arash/internal/chart"
	"github.com/arashplus/arash/internal/config"
	"github.com/arashplus/arash/internal/i18n"
	"github.com/arashplus/arash/internal/llm"
	"github.com/arashplus/arash/internal/marketdata"
	"github.com/arashplus/arash/internal/news"
	"github.com/arashplus/arash/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arash",
	Short: "Arash — conversational finance assistant",
	Long: `Arash is a conversational finance assistant. Ask about tickers in
plain Portuguese or English and get answers grounded in live quotes and
recent headlines, or load a historical series and analyze it with charts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("language", "", "display language override (pt, en)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// buildAssistant wires the live dependency stack from config.
func buildAssistant() (*assistant.Assistant, marketdata.Gateway, error) {
	provider, err := llm.NewOpenAIProvider(cfg.LLM.OpenAIKey,
		llm.WithModel(cfg.LLM.Model))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", i18n.ConfigureKey(sessionLanguage()), err)
	}

	gateway := marketdata.NewYahoo(
		marketdata.WithQuoteTTL(time.Duration(cfg.Data.QuoteTTL) * time.Second))
	searcher := news.NewGoogleNews(
		news.WithCacheTTL(time.Duration(cfg.News.CacheTTL) * time.Second))

	a := assistant.New(provider, gateway, searcher,
		assistant.WithModel(cfg.LLM.Model),
		assistant.WithTemperature(cfg.LLM.Temperature),
		assistant.WithMaxTokens(cfg.LLM.MaxTokens))
	return a, gateway, nil
}

// sessionLanguage resolves the display language from flag then config.
func sessionLanguage() i18n.Language {
	if lang, _ := rootCmd.PersistentFlags().GetString("language"); lang != "" {
		l := i18n.Language(lang)
		if l.Valid() {
			return l
		}
	}
	return cfg.Language()
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Arash %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Chat Command ---

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask a question, or start interactive chat mode",
	Long: `Ask a single question about tickers and markets, or start an
interactive loop when no message is given.

Examples:
  arash chat "Como está o preço de AAPL?"
  arash chat "BTC-USD or ETH-USD this week?"
  arash chat`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := buildAssistant()
		if err != nil {
			return err
		}
		sess := assistant.NewSession()
		sess.SetLanguage(sessionLanguage())

		if len(args) > 0 {
			answer, err := a.Chat(cmd.Context(), sess, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(answer)
			return nil
		}

		fmt.Println("Arash chat — type a question, \"clear\" to reset, \"exit\" to quit.")
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				continue
			case "exit", "quit":
				return nil
			case "clear":
				sess.Clear()
				continue
			}
			answer, err := a.Chat(cmd.Context(), sess, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Println(answer)
			fmt.Println()
		}
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbol]",
	Short: "Load a historical series and analyze it",
	Long: `Fetch daily OHLCV data for a symbol and date range, print the
headline metrics and recent rows, and optionally write a candlestick SVG
chart or ask a question about the data.

Examples:
  arash analyze AAPL --start 2024-01-01 --end 2024-06-01
  arash analyze PETR4.SA --start 2024-01-01 --end 2024-06-01 --chart petr4.svg
  arash analyze BTC-USD --start 2024-01-01 --end 2024-06-01 --ask "What is the trend?"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		chartPath, _ := cmd.Flags().GetString("chart")
		question, _ := cmd.Flags().GetString("ask")
		if start == "" || end == "" {
			return fmt.Errorf("--start and --end are required (YYYY-MM-DD)")
		}

		a, _, err := buildAssistant()
		if err != nil {
			return err
		}
		sess := assistant.NewSession()
		lang := sessionLanguage()
		sess.SetLanguage(lang)

		series, err := a.LoadAnalysis(cmd.Context(), sess, args[0], start, end)
		if err != nil {
			return fmt.Errorf("%s: %w", i18n.EmptySeries(lang), err)
		}

		fmt.Println(i18n.DataLoaded(lang, series.Len()))
		m := assistant.AnalysisMetrics(series)
		labels := i18n.MetricLabels(lang)
		fmt.Printf("  %-20s $%.2f\n", labels[0]+":", m.LastClose)
		fmt.Printf("  %-20s %.2f%%\n", labels[1]+":", m.PeriodChange)
		fmt.Printf("  %-20s $%.2f\n", labels[2]+":", m.High)
		fmt.Printf("  %-20s $%.2f\n", labels[3]+":", m.Low)

		fmt.Println()
		for _, c := range series.Tail(5) {
			fmt.Printf("  %s  O %8.2f  H %8.2f  L %8.2f  C %8.2f  V %12d\n",
				c.Date.Format("2006-01-02"), c.Open, c.High, c.Low, c.Close, c.Volume)
		}

		if chartPath != "" {
			if err := writeChart(series, chartPath); err != nil {
				return err
			}
			fmt.Printf("  chart: %s\n", chartPath)
		}

		if question != "" {
			answer, err := a.AskAnalysis(cmd.Context(), sess, question)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(i18n.AnswerHeader(lang))
			fmt.Println(answer)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	analyzeCmd.Flags().String("end", "", "end date (YYYY-MM-DD)")
	analyzeCmd.Flags().String("chart", "", "write a candlestick SVG chart to this path")
	analyzeCmd.Flags().String("ask", "", "question to ask about the loaded data")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, gateway, err := buildAssistant()
		if err != nil {
			return err
		}

		srv := api.NewServer(cfg, a, gateway, version)
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("Starting Arash API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  Arash — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:   %s (%s)\n", version, commit)
		fmt.Printf("  Time:      %s\n", time.Now().UTC().Format(time.RFC3339))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Model:       %s (temp %.1f, max %d tokens)\n",
			cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens)
		fmt.Printf("    Language:    %s\n", cfg.Language())
		fmt.Printf("    Quote TTL:   %ds\n", cfg.Data.QuoteTTL)
		fmt.Printf("    API Server:  %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-18s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// writeChart renders a candlestick SVG for the series to path.
func writeChart(series *models.Series, path string) error {
	svg := chart.Candlestick(series, chart.DefaultConfig())
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
