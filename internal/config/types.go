package config

// Config описывает настройки голосового ассистента-интервьюера
type Config struct {
	Assistant   AssistantConfig   `yaml:"assistant"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	Voice       VoiceProvider     `yaml:"voice"`
	Model       ModelConfig       `yaml:"model"`
	Interview   InterviewConfig   `yaml:"interview"`
}

// AssistantConfig содержит имя ассистента и шаблон приветствия
type AssistantConfig struct {
	Name         string `yaml:"name"`
	FirstMessage string `yaml:"first_message"`
}

type TranscriberConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
}

type VoiceProvider struct {
	Provider string `yaml:"provider"`
	VoiceID  string `yaml:"voice_id"`
}

type ModelConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// InterviewConfig задает рамки разговора
type InterviewConfig struct {
	MinQuestions int `yaml:"min_questions"`
	MaxQuestions int `yaml:"max_questions"`
}

// Default возвращает настройки, с которыми работал сервис до появления assistant.yaml
func Default() *Config {
	return &Config{
		Assistant: AssistantConfig{
			Name:         "AI Recruiter",
			FirstMessage: "Hi {{name}}, how are you? Ready for your interview on {{position}}?",
		},
		Transcriber: TranscriberConfig{
			Provider: "deepgram",
			Model:    "nova-3",
			Language: "en-US",
		},
		Voice: VoiceProvider{
			Provider: "playht",
			VoiceID:  "jennifer",
		},
		Model: ModelConfig{
			Provider: "openai",
			Model:    "gpt-4",
		},
		Interview: InterviewConfig{
			MinQuestions: 5,
			MaxQuestions: 7,
		},
	}
}
