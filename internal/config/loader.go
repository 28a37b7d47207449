package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Load загружает настройки ассистента из YAML файла.
// Если файла нет, возвращаются значения по умолчанию.
func Load(filename string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	err = validateConfig(config)
	if err != nil {
		return nil, fmt.Errorf("validate assistant config: %w", err)
	}

	return config, nil
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	if config.Assistant.Name == "" {
		return fmt.Errorf("assistant.name is required")
	}

	if config.Assistant.FirstMessage == "" {
		return fmt.Errorf("assistant.first_message is required")
	}

	if config.Transcriber.Provider == "" || config.Transcriber.Model == "" {
		return fmt.Errorf("transcriber.provider and transcriber.model are required")
	}

	if config.Voice.Provider == "" || config.Voice.VoiceID == "" {
		return fmt.Errorf("voice.provider and voice.voice_id are required")
	}

	if config.Model.Provider == "" || config.Model.Model == "" {
		return fmt.Errorf("model.provider and model.model are required")
	}

	if config.Interview.MinQuestions <= 0 {
		return fmt.Errorf("interview.min_questions must be greater than 0")
	}

	if config.Interview.MaxQuestions < config.Interview.MinQuestions {
		return fmt.Errorf("interview.max_questions (%d) is less than min_questions (%d)",
			config.Interview.MaxQuestions, config.Interview.MinQuestions)
	}

	return nil
}
