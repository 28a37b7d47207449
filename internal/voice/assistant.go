package voice

import (
	"interview-voice-grader/internal/config"
	"interview-voice-grader/internal/prompts"
	"interview-voice-grader/internal/session"
)

// AssistantConfig конфигурация ассистента, которую получает голосовой агент
type AssistantConfig struct {
	Name         string        `json:"name"`
	FirstMessage string        `json:"firstMessage"`
	Transcriber  Transcriber   `json:"transcriber"`
	Voice        VoiceSelector `json:"voice"`
	Model        ModelSelector `json:"model"`
}

type Transcriber struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Language string `json:"language"`
}

type VoiceSelector struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

type ModelSelector struct {
	Provider string          `json:"provider"`
	Model    string          `json:"model"`
	Messages []PromptMessage `json:"messages"`
}

type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildAssistant собирает конфигурацию звонка для сессии кандидата.
// Неполная сессия дает session.ErrSessionIncomplete, звонок не начинается.
func BuildAssistant(cfg *config.Config, sess *session.InterviewSession) (AssistantConfig, error) {
	if err := sess.ReadyToStart(); err != nil {
		return AssistantConfig{}, err
	}
	if cfg == nil {
		cfg = config.Default()
	}

	systemPrompt := prompts.GenerateInterviewerPrompt(prompts.InterviewerPrompt{
		CandidateName: sess.CandidateName,
		JobPosition:   sess.JobPosition,
		Questions:     sess.Questions(),
		MinQuestions:  cfg.Interview.MinQuestions,
		MaxQuestions:  cfg.Interview.MaxQuestions,
	})

	return AssistantConfig{
		Name:         cfg.Assistant.Name,
		FirstMessage: prompts.GenerateFirstMessage(cfg.Assistant.FirstMessage, sess.CandidateName, sess.JobPosition),
		Transcriber: Transcriber{
			Provider: cfg.Transcriber.Provider,
			Model:    cfg.Transcriber.Model,
			Language: cfg.Transcriber.Language,
		},
		Voice: VoiceSelector{
			Provider: cfg.Voice.Provider,
			VoiceID:  cfg.Voice.VoiceID,
		},
		Model: ModelSelector{
			Provider: cfg.Model.Provider,
			Model:    cfg.Model.Model,
			Messages: []PromptMessage{{Role: "system", Content: systemPrompt}},
		},
	}, nil
}
