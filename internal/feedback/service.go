package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"interview-voice-grader/internal/api"
	"interview-voice-grader/internal/logging"
	"interview-voice-grader/internal/metrics"
	"interview-voice-grader/internal/prompts"
	"interview-voice-grader/internal/transcript"
)

// ErrMissingTranscript возвращается до обращения к модели, если оценивать нечего
var ErrMissingTranscript = errors.New("feedback: transcript is empty")

const defaultTimeout = 2 * time.Minute

// Service оценивает разговор с кандидатом через языковую модель
type Service struct {
	completer api.Completer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	timeout   time.Duration
}

// New создает сервис оценки
func New(completer api.Completer, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		completer: completer,
		metrics:   m,
		logger:    logging.Component(logger, "feedback"),
		timeout:   defaultTimeout,
	}
}

// Generate отправляет транскрипт на оценку и строго разбирает ответ.
// Повторных попыток нет.
func (s *Service) Generate(ctx context.Context, entries []transcript.Entry) (*Feedback, error) {
	entries = transcript.Filter(entries)
	if len(entries) == 0 {
		return nil, ErrMissingTranscript
	}

	conversation, err := transcript.Serialize(entries)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Info("requesting feedback", slog.Int("entries", len(entries)))
	content, err := s.completer.Complete(ctx, prompts.FeedbackPrompt, prompts.GenerateFeedbackUserPrompt(conversation))
	s.metrics.IncrementAPICall(err == nil)
	if err != nil {
		return nil, fmt.Errorf("scoring request failed: %w", err)
	}

	fb, err := ParseFeedback(content)
	if err != nil {
		s.logger.Warn("scoring response rejected", slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.Info("feedback generated",
		slog.Int("overall", OverallScore(fb.Rating)),
		slog.String("recommendation", fb.RecommendationOrDefault()))
	return fb, nil
}
