package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanInterview(row scanner) (*Interview, error) {
	var (
		interview   Interview
		description sql.NullString
		duration    sql.NullString
		kind        sql.NullString
		questions   string
		createdRaw  string
	)
	if err := row.Scan(
		&interview.InterviewID,
		&interview.UserEmail,
		&interview.JobPosition,
		&description,
		&duration,
		&kind,
		&questions,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	interview.JobDescription = description.String
	interview.Duration = duration.String
	interview.Type = kind.String
	if err := json.Unmarshal([]byte(questions), &interview.QuestionList); err != nil {
		return nil, fmt.Errorf("decode question list: %w", err)
	}
	interview.CreatedAt = parseTime(createdRaw)
	return &interview, nil
}

func scanResult(row scanner) (*FeedbackRecord, error) {
	var (
		record       FeedbackRecord
		transcript   string
		completedRaw string
	)
	if err := row.Scan(
		&record.ID,
		&record.FullName,
		&record.Email,
		&record.InterviewID,
		&transcript,
		&record.Recommendations,
		&completedRaw,
	); err != nil {
		return nil, err
	}
	record.ConversationTranscript = json.RawMessage(transcript)
	record.CompletedAt = parseTime(completedRaw)
	return &record, nil
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// фиксированная ширина, чтобы ORDER BY по тексту совпадал с хронологией
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
