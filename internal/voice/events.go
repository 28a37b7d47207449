package voice

import (
	"encoding/json"
	"fmt"

	"interview-voice-grader/internal/transcript"
)

// EventType события жизненного цикла звонка
type EventType string

const (
	EventCallStart   EventType = "call-start"
	EventSpeechStart EventType = "speech-start"
	EventSpeechEnd   EventType = "speech-end"
	EventMessage     EventType = "message"
	EventCallEnd     EventType = "call-end"
	EventError       EventType = "error"
)

// Message содержимое события message: реплика ассистента и/или
// полный снимок разговора
type Message struct {
	Role         string             `json:"role,omitempty"`
	Content      string             `json:"content,omitempty"`
	Conversation []transcript.Entry `json:"conversation,omitempty"`
}

// HasConversation сообщает, пришел ли снимок разговора
func (m *Message) HasConversation() bool {
	return m != nil && m.Conversation != nil
}

// Event одно событие от голосового агента
type Event struct {
	Type    EventType `json:"type"`
	Message *Message  `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
}

type clientFrame struct {
	Type      string           `json:"type"`
	Assistant *AssistantConfig `json:"assistant,omitempty"`
}

func decodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode voice event: %w", err)
	}
	switch ev.Type {
	case EventCallStart, EventSpeechStart, EventSpeechEnd, EventMessage, EventCallEnd, EventError:
		return ev, nil
	default:
		return Event{}, fmt.Errorf("unknown voice event type %q", ev.Type)
	}
}
