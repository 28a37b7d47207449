package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Assistant.Name != "AI Recruiter" {
		t.Fatalf("expected default assistant name, got %q", cfg.Assistant.Name)
	}
	if cfg.Transcriber.Model != "nova-3" || cfg.Voice.VoiceID != "jennifer" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.yaml")
	body := "assistant:\n  name: Hiring Bot\nvoice:\n  provider: elevenlabs\n  voice_id: rachel\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Assistant.Name != "Hiring Bot" {
		t.Fatalf("expected overridden name, got %q", cfg.Assistant.Name)
	}
	if cfg.Voice.Provider != "elevenlabs" || cfg.Voice.VoiceID != "rachel" {
		t.Fatalf("unexpected voice: %+v", cfg.Voice)
	}
	if cfg.Transcriber.Provider != "deepgram" {
		t.Fatalf("expected transcriber default to survive, got %q", cfg.Transcriber.Provider)
	}
}

func TestLoadRejectsInvalidQuestionBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.yaml")
	body := "interview:\n  min_questions: 6\n  max_questions: 3\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "max_questions") {
		t.Fatalf("expected max_questions validation error, got %v", err)
	}
}

func TestLoadAppConfigFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("STORE_DSN", "postgres://localhost/interviews")
	t.Setenv("DASHBOARD_POLL_INTERVAL", "5s")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg := LoadAppConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if cfg.Store.Driver != "postgres" {
		t.Fatalf("expected lower-cased driver, got %q", cfg.Store.Driver)
	}
	if cfg.Server.PollInterval != 5*time.Second {
		t.Fatalf("unexpected poll interval %s", cfg.Server.PollInterval)
	}
	if !cfg.TelegramEnabled() {
		t.Fatal("expected telegram notifications enabled")
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_PROVIDER", "openai")

	cfg := LoadAppConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestGeminiProviderUsesGeminiKey(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg := LoadLLMConfig()
	if cfg.APIKey != "g-key" {
		t.Fatalf("expected gemini key, got %q", cfg.APIKey)
	}
	if err := cfg.ValidateConfig(); err != nil {
		t.Fatalf("ValidateConfig returned error: %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("INTERVIEW_TEST_VALUE=from-file\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("INTERVIEW_TEST_VALUE") })

	if err := LoadEnvFile(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadEnvFile returned error: %v", err)
	}
	if got := os.Getenv("INTERVIEW_TEST_VALUE"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
}
