package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig собирает все настройки сервиса из переменных окружения
type AppConfig struct {
	LLM           LLMConfig
	Voice         VoiceConfig
	Store         StoreConfig
	Server        ServerConfig
	Telegram      TelegramConfig
	Logging       LoggingConfig
	DataDir       string
	AssistantFile string
}

type VoiceConfig struct {
	URL              string
	APIKey           string
	HandshakeTimeout time.Duration
}

type StoreConfig struct {
	Driver string
	DSN    string
}

type TelegramConfig struct {
	Token  string
	ChatID int64
	Debug  bool
}

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	PollInterval    time.Duration
	JoinRateLimit   int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// LoadEnvFile подгружает .env, если он есть. Отсутствие файла не ошибка.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}

// LoadAppConfig читает конфигурацию из окружения
func LoadAppConfig() *AppConfig {
	dataDir := getEnv("DATA_DIR", "data")
	return &AppConfig{
		LLM: *LoadLLMConfig(),
		Voice: VoiceConfig{
			URL:              getEnv("VOICE_AGENT_URL", ""),
			APIKey:           getEnv("VOICE_AGENT_API_KEY", ""),
			HandshakeTimeout: getEnvAsDuration("VOICE_AGENT_HANDSHAKE_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
			DSN:    getEnv("STORE_DSN", filepath.Join(dataDir, "interviews.db")),
		},
		Server: ServerConfig{
			Addr:            getEnv("SERVER_ADDR", ":8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			PollInterval:    getEnvAsDuration("DASHBOARD_POLL_INTERVAL", 30*time.Second),
			JoinRateLimit:   getEnvAsInt("JOIN_RATE_LIMIT", 10),
		},
		Telegram: TelegramConfig{
			Token:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID: int64(getEnvAsInt("TELEGRAM_CHAT_ID", 0)),
			Debug:  getEnvAsBool("TELEGRAM_DEBUG", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "auto"),
		},
		DataDir:       dataDir,
		AssistantFile: getEnv("ASSISTANT_CONFIG", filepath.Join("config", "assistant.yaml")),
	}
}

// Validate проверяет настройки, без которых сервис не поднимется
func (c *AppConfig) Validate() error {
	if err := c.LLM.ValidateConfig(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("STORE_DRIVER must be sqlite or postgres, got %q", c.Store.Driver)
	}
	if strings.TrimSpace(c.Store.DSN) == "" {
		return fmt.Errorf("STORE_DSN is required")
	}
	if c.Server.PollInterval <= 0 {
		return fmt.Errorf("DASHBOARD_POLL_INTERVAL must be positive")
	}
	return nil
}

// SessionDir возвращает каталог локального кэша сессий
func (c *AppConfig) SessionDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

// TelegramEnabled сообщает, настроены ли уведомления рекрутеру
func (c *AppConfig) TelegramEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
