package session

import (
	"errors"
	"strings"

	"interview-voice-grader/internal/storage"
)

var (
	// ErrSessionMismatch кэш принадлежит другому интервью и был сброшен
	ErrSessionMismatch = errors.New("session: cached session belongs to another interview")
	// ErrNoSession в кэше ничего нет
	ErrNoSession = errors.New("session: no cached session")
	// ErrSessionIncomplete не хватает данных, чтобы начать звонок
	ErrSessionIncomplete = errors.New("session: interview session is incomplete")
)

// InterviewSession контекст одного прохождения, собранный при входе кандидата
type InterviewSession struct {
	InterviewID      string               `json:"interview_id"`
	JobPosition      string               `json:"jobposition"`
	JobDescription   string               `json:"jobdescription"`
	Duration         string               `json:"duration"`
	Type             string               `json:"type"`
	QuestionList     storage.QuestionList `json:"questionlist"`
	CandidateName    string               `json:"candidate_name"`
	CandidateEmail   string               `json:"useremail"`
	CandidatePicture string               `json:"candidate_picture,omitempty"`
}

// NewFromInterview собирает сессию из интервью и данных кандидата
func NewFromInterview(interview *storage.Interview, name, email, picture string) *InterviewSession {
	return &InterviewSession{
		InterviewID:      interview.InterviewID,
		JobPosition:      interview.JobPosition,
		JobDescription:   interview.JobDescription,
		Duration:         interview.Duration,
		Type:             interview.Type,
		QuestionList:     interview.QuestionList,
		CandidateName:    strings.TrimSpace(name),
		CandidateEmail:   strings.TrimSpace(email),
		CandidatePicture: strings.TrimSpace(picture),
	}
}

// Questions возвращает тексты вопросов для системного промпта
func (s *InterviewSession) Questions() []string {
	return s.QuestionList.Texts()
}

// ReadyToStart проверяет, что звонок можно начинать
func (s *InterviewSession) ReadyToStart() error {
	switch {
	case s == nil:
		return ErrSessionIncomplete
	case strings.TrimSpace(s.InterviewID) == "":
		return errors.Join(ErrSessionIncomplete, errors.New("interview id is missing"))
	case strings.TrimSpace(s.JobPosition) == "":
		return errors.Join(ErrSessionIncomplete, errors.New("job position is missing"))
	case len(s.Questions()) == 0:
		return errors.Join(ErrSessionIncomplete, errors.New("question list is empty"))
	}
	return nil
}
