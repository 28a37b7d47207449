package storage

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrNotFound возвращается, когда интервью с таким ID нет
var ErrNotFound = errors.New("storage: not found")

// Question один вопрос из списка интервью
type Question struct {
	Question string `json:"question"`
	Type     string `json:"type,omitempty"`
}

// QuestionList набор вопросов, привязанный к интервью
type QuestionList struct {
	InterviewQuestions []Question `json:"interviewQuestions"`
}

// Texts возвращает непустые формулировки вопросов по порядку
func (q QuestionList) Texts() []string {
	texts := make([]string, 0, len(q.InterviewQuestions))
	for _, item := range q.InterviewQuestions {
		if text := strings.TrimSpace(item.Question); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

// Interview шаблон интервью, созданный рекрутером
type Interview struct {
	InterviewID    string       `json:"interview_id"`
	UserEmail      string       `json:"useremail"`
	JobPosition    string       `json:"jobposition"`
	JobDescription string       `json:"jobdescription"`
	Duration       string       `json:"duration"`
	Type           string       `json:"type"`
	QuestionList   QuestionList `json:"questionlist"`
	CreatedAt      time.Time    `json:"created_at"`
}

// FeedbackRecord результат одного завершенного прохождения.
// Записи только добавляются, существующие никогда не перезаписываются.
type FeedbackRecord struct {
	ID                     int64           `json:"id"`
	FullName               string          `json:"fullname"`
	Email                  string          `json:"email"`
	InterviewID            string          `json:"interview_id"`
	ConversationTranscript json.RawMessage `json:"conversation_transcript"`
	Recommendations        string          `json:"recommendations"`
	CompletedAt            time.Time       `json:"completed_at"`
}
