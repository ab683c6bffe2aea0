// Package api provides the HTTP REST API server for Arash.
//
// It exposes endpoints for chat, quotes, historical data, OHLCV analysis
// with SVG charts, and WebSocket chat streaming.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/arashplus/arash/internal/assistant"
	"github.com/arashplus/arash/internal/chart"
	"github.com/arashplus/arash/internal/config"
	"github.com/arashplus/arash/internal/i18n"
	"github.com/arashplus/arash/internal/marketdata"
)

// defaultRecentRows is how many trailing candles /analysis/recent returns.
const defaultRecentRows = 20

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	assistant *assistant.Assistant
	market    marketdata.Gateway
	sessions  *sessionRegistry
	version   string
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, a *assistant.Assistant, market marketdata.Gateway, version string) *Server {
	srv := &Server{
		cfg:       cfg,
		assistant: a,
		market:    market,
		sessions:  newSessionRegistry(cfg.Language()),
		version:   version,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/chat", s.handleChat)
		r.Post("/chat/clear", s.handleChatClear)

		r.Get("/quote/{symbol}", s.handleQuote)
		r.Get("/history/{symbol}", s.handleHistory)

		r.Post("/analysis/load", s.handleAnalysisLoad)
		r.Post("/analysis/ask", s.handleAnalysisAsk)
		r.Get("/analysis/chart", s.handleAnalysisChart)
		r.Get("/analysis/recent", s.handleAnalysisRecent)

		r.Put("/language", s.handleLanguage)
		r.Get("/config/keys", s.handleConfigKeys)

		r.Get("/ws/chat", s.handleWSChat)
	})

	return r
}

// ============================================================
// Session registry
// ============================================================

// sessionRegistry keeps per-client sessions in memory, keyed by an opaque
// client-supplied identifier. Sessions are created on first use.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*assistant.Session
	language i18n.Language
}

func newSessionRegistry(language i18n.Language) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*assistant.Session),
		language: language,
	}
}

// get returns the session for id, creating it if needed. An empty id maps
// to a shared default session.
func (r *sessionRegistry) get(id string) *assistant.Session {
	if id == "" {
		id = "default"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		sess = assistant.NewSession()
		sess.SetLanguage(r.language)
		r.sessions[id] = sess
	}
	return sess
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ChatRequest is the body for POST /api/v1/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// SessionRequest carries only a session identifier.
type SessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// AnalysisLoadRequest is the body for POST /api/v1/analysis/load.
type AnalysisLoadRequest struct {
	Symbol    string `json:"symbol"`
	Start     string `json:"start"` // YYYY-MM-DD
	End       string `json:"end"`   // YYYY-MM-DD
	SessionID string `json:"session_id,omitempty"`
}

// AnalysisAskRequest is the body for POST /api/v1/analysis/ask.
type AnalysisAskRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// LanguageRequest is the body for PUT /api/v1/language.
type LanguageRequest struct {
	Language  string `json:"language"` // "pt" or "en"
	SessionID string `json:"session_id,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": s.version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	sess := s.sessions.get(req.SessionID)
	answer, err := s.assistant.Chat(ctx, sess, req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"answer":  answer,
			"history": sess.History(),
		},
	})
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body means default session
	}

	s.sessions.get(req.SessionID).Clear()
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	quote, err := s.market.Quote(ctx, symbol)
	if err != nil {
		writeError(w, quoteStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: quote})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if symbol == "" || start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "symbol, start and end are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	series, err := s.market.History(ctx, symbol, start, end)
	if err != nil {
		writeError(w, quoteStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: series})
}

func (s *Server) handleAnalysisLoad(w http.ResponseWriter, r *http.Request) {
	var req AnalysisLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" || req.Start == "" || req.End == "" {
		writeError(w, http.StatusBadRequest, "symbol, start and end are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	sess := s.sessions.get(req.SessionID)
	series, err := s.assistant.LoadAnalysis(ctx, sess, req.Symbol, req.Start, req.End)
	if err != nil {
		status := quoteStatus(err)
		if status == http.StatusBadRequest {
			// Validation errors keep their field detail.
			writeError(w, status, err.Error())
			return
		}
		writeError(w, status, i18n.EmptySeries(sess.Language()))
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"message": i18n.DataLoaded(sess.Language(), series.Len()),
			"symbol":  series.Symbol,
			"metrics": assistant.AnalysisMetrics(series),
		},
	})
}

func (s *Server) handleAnalysisAsk(w http.ResponseWriter, r *http.Request) {
	var req AnalysisAskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	sess := s.sessions.get(req.SessionID)
	answer, err := s.assistant.AskAnalysis(ctx, sess, req.Question)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"header": i18n.AnswerHeader(sess.Language()),
			"answer": answer,
		},
	})
}

func (s *Server) handleAnalysisChart(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(r.URL.Query().Get("session_id"))
	series := sess.Analysis()
	if series == nil {
		writeError(w, http.StatusConflict, i18n.EmptySeries(sess.Language()))
		return
	}

	svg := chart.Candlestick(series, chart.DefaultConfig())
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(svg))
}

func (s *Server) handleAnalysisRecent(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(r.URL.Query().Get("session_id"))
	series := sess.Analysis()
	if series == nil {
		writeError(w, http.StatusConflict, i18n.EmptySeries(sess.Language()))
		return
	}

	rows := defaultRecentRows
	if raw := r.URL.Query().Get("rows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "rows must be a positive integer")
			return
		}
		rows = n
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"symbol":  series.Symbol,
			"candles": series.Tail(rows),
		},
	})
}

func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	var req LanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lang := i18n.Language(req.Language)
	if !lang.Valid() {
		writeError(w, http.StatusBadRequest, "language must be \"pt\" or \"en\"")
		return
	}

	s.sessions.get(req.SessionID).SetLanguage(lang)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]string{"language": string(lang)},
	})
}

func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}

// ============================================================
// Helpers
// ============================================================

// quoteStatus maps market-data errors to HTTP status codes. Validation
// failures are the caller's fault, missing data is 404, everything else is
// an upstream failure.
func quoteStatus(err error) int {
	switch {
	case errors.Is(err, marketdata.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, marketdata.ErrSymbolNotFound), errors.Is(err, marketdata.ErrEmptySeries):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}
