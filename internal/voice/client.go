package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"interview-voice-grader/internal/config"
	"interview-voice-grader/internal/logging"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	stopWriteTimeout        = 2 * time.Second
	eventBuffer             = 64
)

// Agent управляет одним голосовым звонком
type Agent interface {
	Start(ctx context.Context, assistant AssistantConfig) (<-chan Event, error)
	Stop(ctx context.Context) error
}

// Client подключается к голосовому агенту по websocket.
// Один Client обслуживает ровно один звонок.
type Client struct {
	url              string
	apiKey           string
	handshakeTimeout time.Duration
	dialer           *websocket.Dialer
	logger           *slog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	done     chan struct{}
	stopOnce sync.Once
}

// NewClient создает клиента голосового агента
func NewClient(cfg config.VoiceConfig, logger *slog.Logger) *Client {
	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	return &Client{
		url:              cfg.URL,
		apiKey:           cfg.APIKey,
		handshakeTimeout: timeout,
		dialer:           &websocket.Dialer{HandshakeTimeout: timeout},
		logger:           logging.Component(logger, "voice"),
	}
}

// Start открывает соединение и отправляет конфигурацию ассистента.
// Канал событий закрывается, когда соединение завершено.
func (c *Client) Start(ctx context.Context, assistant AssistantConfig) (<-chan Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil, errors.New("voice session already started")
	}
	if c.url == "" {
		return nil, errors.New("voice agent url is not configured")
	}

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	defer cancel()
	conn, _, err := c.dialer.DialContext(dialCtx, c.url, header)
	if err != nil {
		return nil, fmt.Errorf("dial voice agent: %w", err)
	}

	if err := conn.WriteJSON(clientFrame{Type: "start", Assistant: &assistant}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send start frame: %w", err)
	}

	c.conn = conn
	c.done = make(chan struct{})
	events := make(chan Event, eventBuffer)
	go c.readLoop(conn, events, c.done)

	c.logger.Info("voice session started", slog.String("assistant", assistant.Name))
	return events, nil
}

// Stop завершает звонок. Повторные вызовы ничего не делают.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	conn, done := c.conn, c.done
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	var err error
	c.stopOnce.Do(func() {
		deadline := time.Now().Add(stopWriteTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		_ = conn.SetWriteDeadline(deadline)
		if werr := conn.WriteJSON(clientFrame{Type: "stop"}); werr != nil {
			err = fmt.Errorf("send stop frame: %w", werr)
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		close(done)
		_ = conn.Close()
		c.logger.Info("voice session stopped")
	})
	return err
}

func (c *Client) readLoop(conn *websocket.Conn, events chan<- Event, done <-chan struct{}) {
	defer close(events)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Warn("voice connection closed", slog.String("error", err.Error()))
				}
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		ev, err := decodeEvent(data)
		if err != nil {
			c.logger.Warn("skipping voice frame", slog.String("error", err.Error()))
			continue
		}

		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}
