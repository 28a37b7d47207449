package interviewer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"interview-voice-grader/internal/session"
	"interview-voice-grader/internal/transcript"
	"interview-voice-grader/internal/voice"
)

const stopTimeout = 10 * time.Second

// Status снимок живого звонка для страницы кандидата
type Status struct {
	InterviewID string   `json:"interview_id"`
	State       State    `json:"state"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Speaking    bool     `json:"speaking"`
	Notices     []string `json:"notices"`
	Redirect    string   `json:"redirect,omitempty"`
	Done        bool     `json:"done"`
}

// Live один звонок кандидата: события агента, транскрипт и завершение
type Live struct {
	svc      *Service
	clientID string
	info     *session.InterviewSession
	agent    voice.Agent
	acc      *transcript.Accumulator
	logger   *slog.Logger

	ended atomic.Bool

	mu       sync.Mutex
	state    State
	speaking bool
	notices  []string
	outcome  *Outcome
	done     chan struct{}
}

// NewLive готовит звонок; сам звонок начинается в Run
func (s *Service) NewLive(clientID string, info *session.InterviewSession, agent voice.Agent) *Live {
	id := ""
	if info != nil {
		id = info.InterviewID
	}
	return &Live{
		svc:      s,
		clientID: clientID,
		info:     info,
		agent:    agent,
		acc:      transcript.NewAccumulator(),
		logger:   s.logger.With(slog.String("interview_id", id)),
		state:    StateInProgress,
		done:     make(chan struct{}),
	}
}

// Run запускает звонок и обрабатывает события до его конца.
// Закрытие канала событий без call-end завершает звонок так же.
func (l *Live) Run(ctx context.Context, assistant voice.AssistantConfig) {
	events, err := l.agent.Start(ctx, assistant)
	if err != nil {
		l.logger.Error("failed to start voice session", slog.String("error", err.Error()))
		l.abort(err)
		return
	}
	l.svc.metrics.IncrementSessionsStarted()

	for ev := range events {
		l.handle(ctx, ev)
	}
	l.endCall(ctx)
}

// Stop завершает звонок по инициативе кандидата
func (l *Live) Stop(ctx context.Context) error {
	return l.agent.Stop(ctx)
}

func (l *Live) handle(ctx context.Context, ev voice.Event) {
	switch ev.Type {
	case voice.EventCallStart:
		l.Notify(NoticeCallConnected)
	case voice.EventSpeechStart:
		l.setSpeaking(true)
	case voice.EventSpeechEnd:
		l.setSpeaking(false)
	case voice.EventMessage:
		if ev.Message == nil {
			return
		}
		if ev.Message.Role == transcript.RoleAssistant && ev.Message.Content != "" {
			l.acc.SetSubtitle(ev.Message.Content)
		}
		if ev.Message.HasConversation() {
			l.acc.Replace(ev.Message.Conversation)
		}
	case voice.EventError:
		l.logger.Warn("voice agent error", slog.String("error", ev.Error))
		l.Notify(NoticeVoiceAgentProblem)
	case voice.EventCallEnd:
		l.endCall(ctx)
	}
}

func (l *Live) endCall(ctx context.Context) {
	if !l.ended.CompareAndSwap(false, true) {
		return
	}

	l.SetState(StateEnding)
	l.Notify(NoticeCallEnded)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	if err := l.svc.guard("stop voice session", func() error { return l.agent.Stop(stopCtx) }); err != nil {
		l.logger.Warn("voice session stop failed", slog.String("error", err.Error()))
	}
	cancel()

	entries := l.acc.Freeze()
	outcome := l.svc.Finish(ctx, l.clientID, l.info, entries, l)
	l.complete(outcome)
}

func (l *Live) abort(err error) {
	l.ended.Store(true)
	l.Notify(NoticeStartFailed)
	if l.clientID != "" && l.svc.sessions != nil {
		if clearErr := l.svc.guard("clear session", func() error { return l.svc.sessions.Clear(l.clientID) }); clearErr != nil {
			l.logger.Warn("failed to clear interview session", slog.String("error", clearErr.Error()))
		}
	}
	l.SetState(StateRedirecting)
	l.complete(Outcome{State: StateRedirecting, Redirect: ErrorRedirect, Err: err})
}

func (l *Live) complete(outcome Outcome) {
	l.mu.Lock()
	outcome.Notices = append([]string(nil), l.notices...)
	l.outcome = &outcome
	l.state = outcome.State
	l.mu.Unlock()
	close(l.done)
	l.logger.Info("interview finished",
		slog.String("redirect", outcome.Redirect),
		slog.String("persist_state", string(outcome.PersistState)))
}

// SetState отмечает переход состояния
func (l *Live) SetState(state State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
}

// Notify добавляет уведомление для кандидата
func (l *Live) Notify(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, msg)
}

func (l *Live) setSpeaking(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.speaking = v
}

// Done закрывается, когда звонок дошел до редиректа
func (l *Live) Done() <-chan struct{} {
	return l.done
}

// Outcome итог звонка; nil, пока звонок не завершен
func (l *Live) Outcome() *Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.outcome == nil {
		return nil
	}
	out := *l.outcome
	return &out
}

// Status текущее состояние для опроса страницей кандидата
func (l *Live) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := Status{
		State:    l.state,
		Subtitle: l.acc.Subtitle(),
		Speaking: l.speaking,
		Notices:  append([]string(nil), l.notices...),
	}
	if l.info != nil {
		st.InterviewID = l.info.InterviewID
	}
	if l.outcome != nil {
		st.Redirect = l.outcome.Redirect
		st.Done = true
	}
	return st
}
