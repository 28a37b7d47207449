package api

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"interview-voice-grader/internal/config"
)

// GeminiClient отправляет те же запросы через Google GenAI SDK
type GeminiClient struct {
	client *genai.Client
	model  string
	temp   float32
	max    int32
}

// NewGeminiClient создает клиент Gemini API
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  cfg.Model,
		temp:   float32(cfg.Temperature),
		max:    int32(cfg.MaxTokens),
	}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.temp),
		MaxOutputTokens: c.max,
	}
	if strings.TrimSpace(systemPrompt) != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), genConfig)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned empty content")
	}
	return text, nil
}

// NewCompleter выбирает клиента по LLM_PROVIDER
func NewCompleter(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	case config.ProviderOpenAI, "":
		return NewOpenAIClient(cfg, nil), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
