package assistant

import (
	"sync"

	"github.com/arashplus/arash/internal/i18n"
	"github.com/arashplus/arash/pkg/models"
)

// Session holds the per-conversation state: chat history, the currently
// loaded analysis series, and the display language. Safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	language i18n.Language
	history  []models.Turn
	analysis *models.Series
}

// NewSession creates a session in the default language.
func NewSession() *Session {
	return &Session{language: i18n.Default}
}

// Language returns the session's display language.
func (s *Session) Language() i18n.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SetLanguage switches the display language. Invalid codes are ignored.
func (s *Session) SetLanguage(l i18n.Language) {
	if !l.Valid() {
		return
	}
	s.mu.Lock()
	s.language = l
	s.mu.Unlock()
}

// History returns a copy of the conversation so far.
func (s *Session) History() []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// append records one exchange. History is append-only between clears.
func (s *Session) append(role models.Role, content string) {
	s.mu.Lock()
	s.history = append(s.history, models.Turn{Role: role, Content: content})
	s.mu.Unlock()
}

// Clear discards the chat history. The loaded analysis series and the
// language survive a clear.
func (s *Session) Clear() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}

// Analysis returns the currently loaded series, or nil.
func (s *Session) Analysis() *models.Series {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysis
}

// setAnalysis replaces the loaded series wholesale.
func (s *Session) setAnalysis(series *models.Series) {
	s.mu.Lock()
	s.analysis = series
	s.mu.Unlock()
}
