package interviewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"interview-voice-grader/internal/feedback"
	"interview-voice-grader/internal/logging"
	"interview-voice-grader/internal/metrics"
	"interview-voice-grader/internal/prompts"
	"interview-voice-grader/internal/session"
	"interview-voice-grader/internal/storage"
	"interview-voice-grader/internal/transcript"
)

// State этап жизненного цикла звонка
type State string

const (
	StateInProgress      State = "in_progress"
	StateEnding          State = "ending"
	StateFeedbackPending State = "feedback_pending"
	StatePersisted       State = "persisted"
	StatePersistFailed   State = "persist_failed"
	StateRedirecting     State = "redirecting"
)

// ErrorRedirect страница для ошибок, после которых сессию не продолжить
const ErrorRedirect = "/interview/error"

// CompletedRedirect страница завершения интервью
func CompletedRedirect(interviewID string) string {
	return fmt.Sprintf("/interview/%s/completed", interviewID)
}

// Уведомления кандидату
const (
	NoticeCallConnected     = "Call connected"
	NoticeCallEnded         = "Call has ended. Generating feedback..."
	NoticeDataMissing       = "Interview data missing. Please restart the interview."
	NoticeEmailMissing      = "User email is missing. Please restart the interview."
	NoticeIDMissing         = "Interview ID is missing. Please restart the interview."
	NoticeFeedbackFailed    = "Failed to generate feedback"
	NoticePersistFailed     = "Failed to save interview result"
	NoticeStartFailed       = "Failed to start the interview"
	NoticeVoiceAgentProblem = "Voice connection problem"
)

const (
	insertTimeout = 30 * time.Second
	notifyTimeout = 30 * time.Second
)

var (
	errMissingInterviewID = errors.New("interview id is missing")
	errMissingEmail       = errors.New("candidate email is missing")
	errMissingSession     = errors.New("interview session is missing")
)

// FeedbackGenerator оценивает итоговый транскрипт
type FeedbackGenerator interface {
	Generate(ctx context.Context, entries []transcript.Entry) (*feedback.Feedback, error)
}

// ResultWriter сохраняет результат. Только вставка, без перезаписи.
type ResultWriter interface {
	InsertResult(ctx context.Context, record *storage.FeedbackRecord) (*storage.FeedbackRecord, error)
}

// SessionClearer сбрасывает закешированную сессию кандидата
type SessionClearer interface {
	Clear(clientID string) error
}

// QuestionSpawner запускает фоновую перегенерацию вопросов
type QuestionSpawner interface {
	Spawn(interviewID string, req prompts.QuestionRequest)
}

// ResultNotifier сообщает рекрутеру о новом результате
type ResultNotifier interface {
	NotifyResult(ctx context.Context, record *storage.FeedbackRecord, overall int) error
}

// Progress получает смену состояний и уведомления по ходу завершения
type Progress interface {
	SetState(State)
	Notify(string)
}

// Outcome итог завершения звонка
type Outcome struct {
	State        State                   `json:"state"`
	PersistState State                   `json:"persist_state,omitempty"`
	Redirect     string                  `json:"redirect"`
	Notices      []string                `json:"notices"`
	Result       *storage.FeedbackRecord `json:"result,omitempty"`
	Err          error                   `json:"-"`
}

// Deps зависимости сервиса. Notifier и Metrics необязательны.
type Deps struct {
	Feedback  FeedbackGenerator
	Results   ResultWriter
	Sessions  SessionClearer
	Questions QuestionSpawner
	Notifier  ResultNotifier
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Service проводит звонок от call-end до редиректа
type Service struct {
	feedback  FeedbackGenerator
	results   ResultWriter
	sessions  SessionClearer
	questions QuestionSpawner
	notifier  ResultNotifier
	metrics   *metrics.Metrics
	logger    *slog.Logger

	background sync.WaitGroup
}

// New создает сервис интервьюера
func New(deps Deps) *Service {
	return &Service{
		feedback:  deps.Feedback,
		results:   deps.Results,
		sessions:  deps.Sessions,
		questions: deps.Questions,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		logger:    logging.Component(deps.Logger, "interviewer"),
	}
}

// Finish оценивает транскрипт, сохраняет результат, запускает перегенерацию
// вопросов и возвращает куда перенаправить кандидата. Любой шаг может упасть,
// но Finish всегда доходит до StateRedirecting.
func (s *Service) Finish(ctx context.Context, clientID string, info *session.InterviewSession, entries []transcript.Entry, p Progress) Outcome {
	out := &outcomeBuilder{progress: p}
	ctx = context.WithoutCancel(ctx)

	defer func() {
		if clientID != "" && s.sessions != nil {
			if err := s.guard("clear session", func() error { return s.sessions.Clear(clientID) }); err != nil {
				s.logger.Warn("failed to clear interview session", slog.String("error", err.Error()))
			}
		}
		out.setState(StateRedirecting)
	}()

	entries = transcript.Filter(entries)
	if err := validate(info, entries); err != nil {
		out.notify(noticeFor(err))
		out.outcome.Err = err
		out.outcome.Redirect = ErrorRedirect
		s.logger.Error("interview cannot be graded", slog.String("error", err.Error()))
		return out.finish()
	}

	logger := s.logger.With(slog.String("interview_id", info.InterviewID))
	out.setState(StateFeedbackPending)

	var fb *feedback.Feedback
	err := s.guard("generate feedback", func() error {
		var genErr error
		fb, genErr = s.feedback.Generate(ctx, entries)
		return genErr
	})
	if err != nil {
		s.metrics.IncrementFeedbackFailures()
		logger.Error("feedback generation failed", slog.String("error", err.Error()))
		out.notify(NoticeFeedbackFailed)
		out.outcome.Err = err
		out.outcome.PersistState = StatePersistFailed
		out.setState(StatePersistFailed)
	} else {
		record, err := s.persist(ctx, info, fb)
		if err != nil {
			s.metrics.IncrementPersistFailures()
			logger.Error("insert failed", slog.String("error", err.Error()))
			out.notify(NoticePersistFailed)
			out.outcome.Err = err
			out.outcome.PersistState = StatePersistFailed
			out.setState(StatePersistFailed)
		} else {
			s.metrics.IncrementResultsStored()
			logger.Info("interview result stored", slog.Int64("result_id", record.ID))
			out.outcome.Result = record
			out.outcome.PersistState = StatePersisted
			out.setState(StatePersisted)
			s.notifyRecruiter(record, fb)
		}
	}

	if err := s.guard("spawn regeneration", func() error {
		if s.questions != nil {
			s.questions.Spawn(info.InterviewID, prompts.QuestionRequest{
				JobPosition:    info.JobPosition,
				JobDescription: info.JobDescription,
				Duration:       info.Duration,
				Type:           info.Type,
			})
		}
		return nil
	}); err != nil {
		logger.Error("failed to spawn question regeneration", slog.String("error", err.Error()))
	}

	s.metrics.IncrementSessionsCompleted()
	out.outcome.Redirect = CompletedRedirect(info.InterviewID)
	return out.finish()
}

func (s *Service) persist(ctx context.Context, info *session.InterviewSession, fb *feedback.Feedback) (*storage.FeedbackRecord, error) {
	name := info.CandidateName
	if name == "" {
		name = "Unknown"
	}
	record := &storage.FeedbackRecord{
		FullName:               name,
		Email:                  info.CandidateEmail,
		InterviewID:            info.InterviewID,
		ConversationTranscript: fb.Raw,
		Recommendations:        fb.RecommendationOrDefault(),
	}

	ctx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	var stored *storage.FeedbackRecord
	err := s.guard("insert result", func() error {
		var insErr error
		stored, insErr = s.results.InsertResult(ctx, record)
		return insErr
	})
	if err != nil {
		return nil, fmt.Errorf("insert failed: %w", err)
	}
	return stored, nil
}

func (s *Service) notifyRecruiter(record *storage.FeedbackRecord, fb *feedback.Feedback) {
	if s.notifier == nil {
		return
	}
	overall := feedback.OverallScore(fb.Rating)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.guard("notify recruiter", func() error {
			return s.notifier.NotifyResult(ctx, record, overall)
		}); err != nil {
			s.logger.Warn("recruiter notification failed", slog.String("error", err.Error()))
		}
	}()
}

// Wait ждет фоновые уведомления
func (s *Service) Wait() {
	s.background.Wait()
}

func (s *Service) guard(step string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("pipeline step panicked",
				slog.String("step", step),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%s panicked: %v", step, rec)
		}
	}()
	return fn()
}

func validate(info *session.InterviewSession, entries []transcript.Entry) error {
	switch {
	case info == nil:
		return errMissingSession
	case len(entries) == 0:
		return feedback.ErrMissingTranscript
	case info.CandidateEmail == "":
		return errMissingEmail
	case info.InterviewID == "":
		return errMissingInterviewID
	}
	return nil
}

func noticeFor(err error) string {
	switch {
	case errors.Is(err, errMissingEmail):
		return NoticeEmailMissing
	case errors.Is(err, errMissingInterviewID):
		return NoticeIDMissing
	default:
		return NoticeDataMissing
	}
}

type outcomeBuilder struct {
	progress Progress
	outcome  Outcome
}

func (b *outcomeBuilder) setState(state State) {
	b.outcome.State = state
	if b.progress != nil {
		b.progress.SetState(state)
	}
}

func (b *outcomeBuilder) notify(msg string) {
	b.outcome.Notices = append(b.outcome.Notices, msg)
	if b.progress != nil {
		b.progress.Notify(msg)
	}
}

func (b *outcomeBuilder) finish() Outcome {
	b.outcome.State = StateRedirecting
	return b.outcome
}
