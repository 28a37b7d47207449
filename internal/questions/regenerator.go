package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"interview-voice-grader/internal/api"
	"interview-voice-grader/internal/logging"
	"interview-voice-grader/internal/metrics"
	"interview-voice-grader/internal/prompts"
	"interview-voice-grader/internal/storage"
)

// ErrNoQuestionBlock ответ модели не содержит блока ```json
var ErrNoQuestionBlock = errors.New("questions: response has no json block")

const defaultTimeout = 3 * time.Minute

// Updater обновляет список вопросов интервью
type Updater interface {
	UpdateQuestionList(ctx context.Context, interviewID string, list storage.QuestionList) error
}

// Regenerator генерирует свежие вопросы для следующего кандидата
type Regenerator struct {
	completer api.Completer
	updater   Updater
	metrics   *metrics.Metrics
	logger    *slog.Logger
	timeout   time.Duration

	wg sync.WaitGroup
}

// New создает генератор вопросов
func New(completer api.Completer, updater Updater, m *metrics.Metrics, logger *slog.Logger) *Regenerator {
	return &Regenerator{
		completer: completer,
		updater:   updater,
		metrics:   m,
		logger:    logging.Component(logger, "questions"),
		timeout:   defaultTimeout,
	}
}

// Generate запрашивает у модели новый список вопросов
func (r *Regenerator) Generate(ctx context.Context, req prompts.QuestionRequest) (storage.QuestionList, error) {
	content, err := r.completer.Complete(ctx, "", prompts.GenerateQuestionPrompt(req))
	r.metrics.IncrementAPICall(err == nil)
	if err != nil {
		return storage.QuestionList{}, fmt.Errorf("question request failed: %w", err)
	}

	block, ok := api.ExtractJSONBlock(content)
	if !ok {
		return storage.QuestionList{}, ErrNoQuestionBlock
	}

	var list storage.QuestionList
	if err := json.Unmarshal([]byte(block), &list); err != nil {
		return storage.QuestionList{}, fmt.Errorf("parse question list: %w", err)
	}
	if len(list.Texts()) == 0 {
		return storage.QuestionList{}, errors.New("questions: generated list is empty")
	}
	return list, nil
}

// Spawn запускает перегенерацию в фоне и сразу возвращается.
// Ошибки только логируются.
func (r *Regenerator) Spawn(interviewID string, req prompts.QuestionRequest) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.metrics.IncrementRegeneration(false)
				r.logger.Error("question regeneration panicked",
					slog.String("interview_id", interviewID),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		err := r.regenerate(ctx, interviewID, req)
		r.metrics.IncrementRegeneration(err == nil)
		if err != nil {
			r.logger.Error("failed to generate new questions for next candidate",
				slog.String("interview_id", interviewID),
				slog.String("error", err.Error()))
			return
		}
		r.logger.Info("question list regenerated", slog.String("interview_id", interviewID))
	}()
}

func (r *Regenerator) regenerate(ctx context.Context, interviewID string, req prompts.QuestionRequest) error {
	list, err := r.Generate(ctx, req)
	if err != nil {
		return err
	}
	if err := r.updater.UpdateQuestionList(ctx, interviewID, list); err != nil {
		return fmt.Errorf("update question list: %w", err)
	}
	return nil
}

// Wait ждет завершения всех запущенных перегенераций
func (r *Regenerator) Wait() {
	r.wg.Wait()
}
