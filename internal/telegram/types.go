package telegram

import (
	"log/slog"
	"net/http"
)

// Bot отправляет уведомления рекрутеру через Telegram Bot API
type Bot struct {
	token      string
	baseURL    string
	chatID     int64
	httpClient *http.Client
	logger     *slog.Logger
}

// Message представляет сообщение в Telegram
type Message struct {
	MessageID int    `json:"message_id"`
	Chat      *Chat  `json:"chat"`
	Text      string `json:"text,omitempty"`
}

// Chat представляет чат в Telegram
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// SendMessageRequest представляет запрос на отправку сообщения
type SendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// SendMessageResponse представляет ответ от sendMessage
type SendMessageResponse struct {
	OK          bool     `json:"ok"`
	Description string   `json:"description,omitempty"`
	Result      *Message `json:"result,omitempty"`
}
