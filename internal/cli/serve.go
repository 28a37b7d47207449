package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"interview-voice-grader/internal/config"
	"interview-voice-grader/internal/feedback"
	"interview-voice-grader/internal/interviewer"
	"interview-voice-grader/internal/metrics"
	"interview-voice-grader/internal/questions"
	"interview-voice-grader/internal/server"
	"interview-voice-grader/internal/session"
	"interview-voice-grader/internal/storage"
	"interview-voice-grader/internal/telegram"
	"interview-voice-grader/internal/voice"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the interview HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServer(cmd, ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides SERVER_ADDR)")
	return cmd
}

func runServer(cmd *cobra.Command, ctx *commandContext, cfg *config.AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Voice.URL == "" {
		return errors.New("VOICE_AGENT_URL is required to serve interviews")
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := ctx.logger()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	lockPath := filepath.Join(cfg.DataDir, "server.lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another server instance holds %s", lockPath)
	}
	defer func() { _ = lock.Unlock() }()

	assistant, err := config.Load(cfg.AssistantFile)
	if err != nil {
		return fmt.Errorf("load assistant config: %w", err)
	}

	store, err := storage.Open(signalCtx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := session.NewStore(cfg.SessionDir())
	if err != nil {
		return err
	}

	completer, err := ctx.completer(signalCtx)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics()
	regenerator := questions.New(completer, store, m, logger)

	var notifier interviewer.ResultNotifier
	if cfg.TelegramEnabled() {
		notifier = telegram.New(cfg.Telegram, "", logger)
		logger.Info("recruiter notifications enabled", slog.Int64("chat_id", cfg.Telegram.ChatID))
	}

	pipeline := interviewer.New(interviewer.Deps{
		Feedback:  feedback.New(completer, m, logger),
		Results:   store,
		Sessions:  sessions,
		Questions: regenerator,
		Notifier:  notifier,
		Metrics:   m,
		Logger:    logger,
	})

	srv := server.New(cfg.Server, server.Deps{
		Interviews: store,
		Sessions:   sessions,
		Pipeline:   pipeline,
		Questions:  regenerator,
		NewAgent: func() voice.Agent {
			return voice.NewClient(cfg.Voice, logger)
		},
		Assistant: assistant,
		Metrics:   m,
		Logger:    logger,
	})

	logger.Info("starting interview service",
		slog.String("address", cfg.Server.Addr),
		slog.String("store", cfg.Store.Driver),
		slog.Any("llm", cfg.LLM.GetModelInfo()))

	err = srv.ListenAndServe(signalCtx)
	regenerator.Wait()
	pipeline.Wait()
	logger.Info("interview service stopped")
	return err
}
