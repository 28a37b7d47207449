package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"interview-voice-grader/internal/api"
	"interview-voice-grader/internal/config"
	"interview-voice-grader/internal/logging"
	"interview-voice-grader/internal/storage"
)

type commandContext struct {
	envFlag       *string
	assistantFlag *string
	logOut        io.Writer

	configOnce sync.Once
	config     *config.AppConfig
	configErr  error
}

func newCommandContext(envFlag, assistantFlag *string) *commandContext {
	return &commandContext{
		envFlag:       envFlag,
		assistantFlag: assistantFlag,
		logOut:        os.Stderr,
	}
}

func (c *commandContext) ensureConfig() (*config.AppConfig, error) {
	c.configOnce.Do(func() {
		var envPaths []string
		if c.envFlag != nil && strings.TrimSpace(*c.envFlag) != "" {
			envPaths = append(envPaths, strings.TrimSpace(*c.envFlag))
		}
		if err := config.LoadEnvFile(envPaths...); err != nil {
			c.configErr = err
			return
		}
		cfg := config.LoadAppConfig()
		if c.assistantFlag != nil && strings.TrimSpace(*c.assistantFlag) != "" {
			cfg.AssistantFile = strings.TrimSpace(*c.assistantFlag)
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: c.logOut,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func (c *commandContext) withStore(ctx context.Context, fn func(*storage.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *commandContext) completer(ctx context.Context) (api.Completer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.LLM.ValidateConfig(); err != nil {
		return nil, err
	}
	return api.NewCompleter(ctx, cfg.LLM)
}
