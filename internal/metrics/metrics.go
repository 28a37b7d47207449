package metrics

import (
	"sync"
	"time"
)

// Metrics счетчики жизненного цикла интервью
type Metrics struct {
	mu                   sync.RWMutex
	sessionsStarted      int64
	sessionsCompleted    int64
	resultsStored        int64
	feedbackFailures     int64
	persistFailures      int64
	regenerations        int64
	regenerationFailures int64
	apiCallsTotal        int64
	apiCallsSuccessful   int64
	lastUpdateTime       time.Time
}

// Snapshot копия счетчиков для отдачи наружу
type Snapshot struct {
	SessionsStarted      int64     `json:"sessions_started"`
	SessionsCompleted    int64     `json:"sessions_completed"`
	ResultsStored        int64     `json:"results_stored"`
	FeedbackFailures     int64     `json:"feedback_failures"`
	PersistFailures      int64     `json:"persist_failures"`
	Regenerations        int64     `json:"regenerations"`
	RegenerationFailures int64     `json:"regeneration_failures"`
	APICallsTotal        int64     `json:"api_calls_total"`
	APICallsSuccessful   int64     `json:"api_calls_successful"`
	LastUpdateTime       time.Time `json:"last_update_time"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		lastUpdateTime: time.Now(),
	}
}

func (m *Metrics) bump(counter *int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	*counter++
	m.lastUpdateTime = time.Now()
}

func (m *Metrics) IncrementSessionsStarted() {
	if m != nil {
		m.bump(&m.sessionsStarted)
	}
}

func (m *Metrics) IncrementSessionsCompleted() {
	if m != nil {
		m.bump(&m.sessionsCompleted)
	}
}

func (m *Metrics) IncrementResultsStored() {
	if m != nil {
		m.bump(&m.resultsStored)
	}
}

func (m *Metrics) IncrementFeedbackFailures() {
	if m != nil {
		m.bump(&m.feedbackFailures)
	}
}

func (m *Metrics) IncrementPersistFailures() {
	if m != nil {
		m.bump(&m.persistFailures)
	}
}

// IncrementRegeneration учитывает фоновую перегенерацию вопросов
func (m *Metrics) IncrementRegeneration(success bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regenerations++
	if !success {
		m.regenerationFailures++
	}
	m.lastUpdateTime = time.Now()
}

func (m *Metrics) IncrementAPICall(success bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiCallsTotal++
	if success {
		m.apiCallsSuccessful++
	}
	m.lastUpdateTime = time.Now()
}

func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		SessionsStarted:      m.sessionsStarted,
		SessionsCompleted:    m.sessionsCompleted,
		ResultsStored:        m.resultsStored,
		FeedbackFailures:     m.feedbackFailures,
		PersistFailures:      m.persistFailures,
		Regenerations:        m.regenerations,
		RegenerationFailures: m.regenerationFailures,
		APICallsTotal:        m.apiCallsTotal,
		APICallsSuccessful:   m.apiCallsSuccessful,
		LastUpdateTime:       m.lastUpdateTime,
	}
}
