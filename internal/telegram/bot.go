package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"interview-voice-grader/internal/config"
	"interview-voice-grader/internal/logging"
	"interview-voice-grader/internal/storage"
)

const defaultAPIBase = "https://api.telegram.org"

// New создает новый Telegram бот. apiBase пустой означает публичный API.
func New(cfg config.TelegramConfig, apiBase string, logger *slog.Logger) *Bot {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Bot{
		token:      cfg.Token,
		baseURL:    fmt.Sprintf("%s/bot%s", strings.TrimRight(apiBase, "/"), cfg.Token),
		chatID:     cfg.ChatID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.Component(logger, "telegram"),
	}
}

// SendMessage отправляет сообщение в чат
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	request := SendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "Markdown",
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal sendMessage request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/sendMessage", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read sendMessage response: %w", err)
	}

	var response SendMessageResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("parse sendMessage response: %w", err)
	}

	if !response.OK {
		return fmt.Errorf("telegram API error: %s", response.Description)
	}

	return nil
}

// NotifyResult сообщает рекрутеру о новом результате прохождения
func (b *Bot) NotifyResult(ctx context.Context, record *storage.FeedbackRecord, overall int) error {
	text := FormatResult(record, overall)
	if err := b.SendMessage(ctx, b.chatID, text); err != nil {
		return err
	}
	b.logger.Info("recruiter notified",
		slog.String("interview_id", record.InterviewID),
		slog.Int64("result_id", record.ID))
	return nil
}

// FormatResult текст уведомления о результате
func FormatResult(record *storage.FeedbackRecord, overall int) string {
	var sb strings.Builder
	sb.WriteString("*Interview completed*\n")
	sb.WriteString(fmt.Sprintf("Candidate: %s", record.FullName))
	if record.Email != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", record.Email))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Interview: `%s`\n", record.InterviewID))
	sb.WriteString(fmt.Sprintf("Overall score: %d/10\n", overall))
	sb.WriteString(fmt.Sprintf("Recommendation: %s", record.Recommendations))
	return sb.String()
}
