package config

import (
	"fmt"
	"strings"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type LLMConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// LoadLLMConfig загружает конфигурацию модели оценки из переменных окружения
func LoadLLMConfig() *LLMConfig {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI))
	config := &LLMConfig{
		Provider:    provider,
		APIKey:      getEnv("OPENAI_API_KEY", ""),
		BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1/chat/completions"),
		Model:       getEnv("OPENAI_MODEL", "gpt-4o"),
		MaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 4000),
		Temperature: getEnvAsFloat("OPENAI_TEMPERATURE", 0.1),
	}
	if provider == ProviderGemini {
		config.APIKey = getEnv("GEMINI_API_KEY", "")
		config.BaseURL = ""
		config.Model = getEnv("GEMINI_MODEL", "gemini-2.0-flash")
	}

	return config
}

// ValidateConfig проверяет корректность конфигурации
func (c *LLMConfig) ValidateConfig() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("LLM_PROVIDER must be openai or gemini, got %q", c.Provider)
	}

	if c.APIKey == "" {
		return fmt.Errorf("%s api key is required", c.Provider)
	}

	if c.MaxTokens <= 0 {
		return fmt.Errorf("OPENAI_MAX_TOKENS must be positive")
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("OPENAI_TEMPERATURE must be between 0 and 2")
	}

	return nil
}

// GetModelInfo возвращает информацию о используемой модели
func (c *LLMConfig) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"model":       c.Model,
		"max_tokens":  c.MaxTokens,
		"temperature": c.Temperature,
		"provider":    c.Provider,
	}
}
