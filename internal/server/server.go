package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"interview-voice-grader/internal/config"
	"interview-voice-grader/internal/dashboard"
	"interview-voice-grader/internal/interviewer"
	"interview-voice-grader/internal/logging"
	"interview-voice-grader/internal/metrics"
	"interview-voice-grader/internal/prompts"
	"interview-voice-grader/internal/session"
	"interview-voice-grader/internal/storage"
	"interview-voice-grader/internal/voice"
)

const (
	clientCookie   = "interview_client"
	maxBodyBytes   = 1 << 20
	liveRetention  = 24 * time.Hour
	cleanupEvery   = time.Hour
	generateTimeout = 2 * time.Minute
)

// InterviewStore то, что серверу нужно от хранилища
type InterviewStore interface {
	dashboard.Source
	GetInterview(ctx context.Context, interviewID string) (*storage.Interview, error)
	CreateInterview(ctx context.Context, interview *storage.Interview) error
}

// SessionCache локальный кэш сессий кандидатов
type SessionCache interface {
	Save(clientID string, sess *session.InterviewSession) error
	Load(clientID, interviewID string) (*session.InterviewSession, error)
	Clear(clientID string) error
}

// QuestionGenerator создает список вопросов для нового интервью
type QuestionGenerator interface {
	Generate(ctx context.Context, req prompts.QuestionRequest) (storage.QuestionList, error)
}

// Deps зависимости HTTP сервера
type Deps struct {
	Interviews InterviewStore
	Sessions   SessionCache
	Pipeline   *interviewer.Service
	Questions  QuestionGenerator
	NewAgent   func() voice.Agent
	Assistant  *config.Config
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

type liveEntry struct {
	live      *interviewer.Live
	startedAt time.Time
}

// Server HTTP API для кандидатов и рекрутеров
type Server struct {
	cfg        config.ServerConfig
	interviews InterviewStore
	sessions   SessionCache
	pipeline   *interviewer.Service
	questions  QuestionGenerator
	newAgent   func() voice.Agent
	assistant  *config.Config
	metrics    *metrics.Metrics
	logger     *slog.Logger
	limiter    *RateLimiter

	baseCtx context.Context

	liveMu sync.Mutex
	live   map[string]*liveEntry
	liveWG sync.WaitGroup

	mux *http.ServeMux
}

// New создает сервер и регистрирует маршруты
func New(cfg config.ServerConfig, deps Deps) *Server {
	assistant := deps.Assistant
	if assistant == nil {
		assistant = config.Default()
	}
	s := &Server{
		cfg:        cfg,
		interviews: deps.Interviews,
		sessions:   deps.Sessions,
		pipeline:   deps.Pipeline,
		questions:  deps.Questions,
		newAgent:   deps.NewAgent,
		assistant:  assistant,
		metrics:    deps.Metrics,
		logger:     logging.Component(deps.Logger, "http"),
		limiter:    NewRateLimiter(cfg.JoinRateLimit, time.Minute),
		baseCtx:    context.Background(),
		live:       make(map[string]*liveEntry),
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.mux.HandleFunc("GET /interview/error", s.handleErrorView)
	s.mux.HandleFunc("GET /interview/{id}", s.handleInterview)
	s.mux.HandleFunc("POST /interview/{id}/join", s.limited(s.handleJoin))
	s.mux.HandleFunc("POST /interview/{id}/start", s.limited(s.handleStart))
	s.mux.HandleFunc("POST /interview/{id}/stop", s.handleStop)
	s.mux.HandleFunc("GET /interview/{id}/status", s.handleStatus)
	s.mux.HandleFunc("GET /interview/{id}/completed", s.handleCompleted)

	s.mux.HandleFunc("POST /interviews", s.handleCreateInterview)
	s.mux.HandleFunc("GET /interviews", s.handleListInterviews)
}

// Handler возвращает корневой обработчик
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe обслуживает запросы до отмены ctx, затем дожидается
// завершения живых звонков.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.baseCtx = ctx

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go s.cleanupLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("address", listener.Addr().String()))
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http serve: %w", err)
		}
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", slog.String("error", err.Error()))
	}
	s.stopLive(shutdownCtx)
	s.Wait()
	return nil
}

// Wait ждет завершения всех запущенных звонков
func (s *Server) Wait() {
	s.liveWG.Wait()
}

func (s *Server) stopLive(ctx context.Context) {
	s.liveMu.Lock()
	entries := make([]*liveEntry, 0, len(s.live))
	for _, e := range s.live {
		entries = append(entries, e)
	}
	s.liveMu.Unlock()

	for _, e := range entries {
		select {
		case <-e.live.Done():
			continue
		default:
		}
		if err := e.live.Stop(ctx); err != nil {
			s.logger.Warn("failed to stop live session", slog.String("error", err.Error()))
		}
	}
}

func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupFinished(time.Now())
			s.limiter.Cleanup()
		}
	}
}

func (s *Server) cleanupFinished(now time.Time) {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()

	cutoff := now.Add(-liveRetention)
	for clientID, e := range s.live {
		select {
		case <-e.live.Done():
			if e.startedAt.Before(cutoff) {
				delete(s.live, clientID)
			}
		default:
		}
	}
}

func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.IsAllowed(rateKey(r)) {
			s.writeError(w, http.StatusTooManyRequests, "too many requests, please wait a minute")
			return
		}
		next(w, r)
	}
}

func rateKey(r *http.Request) string {
	if c, err := r.Cookie(clientCookie); err == nil && c.Value != "" {
		return "client:" + c.Value
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "addr:" + r.RemoteAddr
	}
	return "addr:" + host
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		s.writeJSON(w, http.StatusOK, metrics.Snapshot{})
		return
	}
	s.writeJSON(w, http.StatusOK, s.metrics.GetSnapshot())
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
