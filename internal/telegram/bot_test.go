package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"interview-voice-grader/internal/config"
	"interview-voice-grader/internal/logging"
	"interview-voice-grader/internal/storage"
)

func TestNotifyResultPostsToChat(t *testing.T) {
	var got SendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottok/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":42,"type":"private"}}}`))
	}))
	defer srv.Close()

	bot := New(config.TelegramConfig{Token: "tok", ChatID: 42}, srv.URL, logging.NewNop())
	record := &storage.FeedbackRecord{
		ID:              7,
		FullName:        "Jane Doe",
		Email:           "jane@example.com",
		InterviewID:     "abc-123",
		Recommendations: "Not recommended",
	}
	if err := bot.NotifyResult(context.Background(), record, 6); err != nil {
		t.Fatalf("NotifyResult failed: %v", err)
	}

	if got.ChatID != 42 {
		t.Fatalf("chat id = %d, want 42", got.ChatID)
	}
	for _, want := range []string{"Jane Doe", "abc-123", "6/10", "Not recommended"} {
		if !strings.Contains(got.Text, want) {
			t.Fatalf("message %q missing %q", got.Text, want)
		}
	}
}

func TestSendMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	bot := New(config.TelegramConfig{Token: "tok", ChatID: 1}, srv.URL, logging.NewNop())
	err := bot.SendMessage(context.Background(), 1, "hi")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected API error, got %v", err)
	}
}
