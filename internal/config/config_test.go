package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arashplus/arash/internal/i18n"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, e := range []string{"ARASH_LLM_OPENAI_KEY", "OPENAI_API_KEY"} {
		os.Unsetenv(e)
	}
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.LLM.Model != "gpt-4-turbo" {
		t.Errorf("LLM.Model: got %q, want %q", cfg.LLM.Model, "gpt-4-turbo")
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("LLM.Temperature: got %f, want 0.7", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens != 1000 {
		t.Errorf("LLM.MaxTokens: got %d, want 1000", cfg.LLM.MaxTokens)
	}

	if cfg.Data.QuoteTTL != 60 {
		t.Errorf("Data.QuoteTTL: got %d, want 60", cfg.Data.QuoteTTL)
	}
	if cfg.Data.RateLimit != 5 {
		t.Errorf("Data.RateLimit: got %d, want 5", cfg.Data.RateLimit)
	}

	if cfg.News.MaxResults != 3 {
		t.Errorf("News.MaxResults: got %d, want 3", cfg.News.MaxResults)
	}
	if cfg.News.CacheTTL != 600 {
		t.Errorf("News.CacheTTL: got %d, want 600", cfg.News.CacheTTL)
	}

	if cfg.Chat.Language != "pt" {
		t.Errorf("Chat.Language: got %q, want %q", cfg.Chat.Language, "pt")
	}

	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
llm:
  model: "gpt-4o-mini"
  temperature: 0.3
  max_tokens: 2000
data:
  quote_ttl: 120
chat:
  language: "en"
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("LLM.Model: got %q, want %q", cfg.LLM.Model, "gpt-4o-mini")
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Errorf("LLM.Temperature: got %f, want 0.3", cfg.LLM.Temperature)
	}
	if cfg.Data.QuoteTTL != 120 {
		t.Errorf("Data.QuoteTTL: got %d, want 120", cfg.Data.QuoteTTL)
	}
	if cfg.Language() != i18n.English {
		t.Errorf("Language(): got %q, want %q", cfg.Language(), i18n.English)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}
	// Unspecified keys keep their defaults.
	if cfg.News.MaxResults != 3 {
		t.Errorf("News.MaxResults: got %d, want default 3", cfg.News.MaxResults)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/path/config.yaml"); err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── Language fallback ──

func TestLanguageFallback(t *testing.T) {
	cfg := &Config{Chat: ChatConfig{Language: "fr"}}
	if cfg.Language() != i18n.Default {
		t.Errorf("Language(): got %q, want default for unknown code", cfg.Language())
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	os.Setenv("ARASH_LLM_OPENAI_KEY", "sk-test-openai-key-123456")
	defer os.Unsetenv("ARASH_LLM_OPENAI_KEY")

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.LLM.OpenAIKey != "sk-test-openai-key-123456" {
		t.Errorf("OpenAIKey: got %q", cfg.LLM.OpenAIKey)
	}
}

func TestOverrideFromEnvFallback(t *testing.T) {
	clearEnv(t)
	os.Setenv("OPENAI_API_KEY", "sk-fallback-key-value")
	defer os.Unsetenv("OPENAI_API_KEY")

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.LLM.OpenAIKey != "sk-fallback-key-value" {
		t.Errorf("OpenAIKey: got %q, want fallback env value", cfg.LLM.OpenAIKey)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearEnv(t)

	cfg := &Config{LLM: LLMConfig{OpenAIKey: "from-config"}}
	overrideFromEnv(cfg)

	if cfg.LLM.OpenAIKey != "from-config" {
		t.Errorf("OpenAIKey should stay as 'from-config' when env is unset, got %q", cfg.LLM.OpenAIKey)
	}
}

// ── maskKey ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
		{"sk-abcdef1234567890xyz", "sk-...xyz"},
	}
	for _, tc := range tests {
		if got := maskKey(tc.input); got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / checkKey ──

func TestCheckAPIKeysEmpty(t *testing.T) {
	clearEnv(t)

	statuses := CheckAPIKeys(&Config{})
	if len(statuses) != 1 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 1", len(statuses))
	}
	if statuses[0].IsSet || statuses[0].Source != KeySourceNone {
		t.Errorf("empty config: got %+v, want unset/none", statuses[0])
	}
}

func TestCheckAPIKeysFromConfig(t *testing.T) {
	clearEnv(t)

	cfg := &Config{LLM: LLMConfig{OpenAIKey: "sk-test-very-long-key-value"}}
	statuses := CheckAPIKeys(cfg)

	s := statuses[0]
	if !s.IsSet {
		t.Error("OpenAI key should be set")
	}
	if s.Source != KeySourceConfig {
		t.Errorf("Source: got %q, want %q", s.Source, KeySourceConfig)
	}
	if s.Masked != "sk-...lue" {
		t.Errorf("Masked: got %q, want %q", s.Masked, "sk-...lue")
	}
}

func TestCheckAPIKeysFromEnv(t *testing.T) {
	clearEnv(t)
	os.Setenv("ARASH_LLM_OPENAI_KEY", "sk-env-key-for-testing")
	defer os.Unsetenv("ARASH_LLM_OPENAI_KEY")

	cfg := &Config{LLM: LLMConfig{OpenAIKey: "sk-env-key-for-testing"}}
	statuses := CheckAPIKeys(cfg)
	if statuses[0].Source != KeySourceEnv {
		t.Errorf("Source: got %q, want %q", statuses[0].Source, KeySourceEnv)
	}
}
