package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"interview-voice-grader/internal/config"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// goose хранит диалект и FS глобально
var gooseMu sync.Mutex

const (
	interviewColumns = "interview_id, useremail, jobposition, jobdescription, duration, type, questionlist, created_at"
	resultColumns    = "id, fullname, email, interview_id, conversation_transcript, recommendations, completed_at"
)

// Store хранит интервью и результаты в SQLite или Postgres
type Store struct {
	db     *sql.DB
	driver string
}

// Open подключается к базе и применяет миграции
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case "sqlite", "":
		db, err = openSQLite(cfg.DSN)
	case "postgres":
		db, err = sql.Open("pgx", cfg.DSN)
		if err == nil {
			err = db.PingContext(ctx)
		}
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}

	store := &Store{db: db, driver: cfg.Driver}
	if store.driver == "" {
		store.driver = "sqlite"
	}
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func openSQLite(dsn string) (*sql.DB, error) {
	if dir := filepath.Dir(dsn); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return db, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	return db, nil
}

// Migrate применяет встроенные goose-миграции для текущего драйвера
func (s *Store) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	dialect := "sqlite3"
	if s.driver == "postgres" {
		dialect = "postgres"
	}
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations/"+s.driver); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateInterview сохраняет новое интервью. ID генерируется, если не задан.
func (s *Store) CreateInterview(ctx context.Context, interview *Interview) error {
	if interview == nil {
		return errors.New("interview is nil")
	}
	if strings.TrimSpace(interview.JobPosition) == "" {
		return errors.New("job position is required")
	}
	if interview.InterviewID == "" {
		interview.InterviewID = uuid.NewString()
	}
	interview.CreatedAt = time.Now().UTC()

	questions, err := json.Marshal(interview.QuestionList)
	if err != nil {
		return fmt.Errorf("marshal question list: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO interviews (`+interviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		interview.InterviewID,
		interview.UserEmail,
		interview.JobPosition,
		interview.JobDescription,
		interview.Duration,
		interview.Type,
		string(questions),
		formatTime(interview.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert interview: %w", err)
	}
	return nil
}

// GetInterview возвращает интервью по ID или ErrNotFound
func (s *Store) GetInterview(ctx context.Context, interviewID string) (*Interview, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+interviewColumns+` FROM interviews WHERE interview_id = ?`), interviewID)
	interview, err := scanInterview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("interview %s: %w", interviewID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get interview: %w", err)
	}
	return interview, nil
}

// ListInterviews возвращает интервью рекрутера, новые первыми
func (s *Store) ListInterviews(ctx context.Context, userEmail string) ([]*Interview, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+interviewColumns+` FROM interviews WHERE useremail = ? ORDER BY created_at DESC`), userEmail)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	defer rows.Close()

	var interviews []*Interview
	for rows.Next() {
		interview, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interview: %w", err)
		}
		interviews = append(interviews, interview)
	}
	return interviews, rows.Err()
}

// UpdateQuestionList заменяет список вопросов интервью на месте
func (s *Store) UpdateQuestionList(ctx context.Context, interviewID string, list QuestionList) error {
	questions, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal question list: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE interviews SET questionlist = ? WHERE interview_id = ?`), string(questions), interviewID)
	if err != nil {
		return fmt.Errorf("update question list: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("interview %s: %w", interviewID, ErrNotFound)
	}
	return nil
}

// InsertResult добавляет новую запись результата. Никогда не делает upsert:
// повторные прохождения одного интервью дают отдельные строки.
func (s *Store) InsertResult(ctx context.Context, record *FeedbackRecord) (*FeedbackRecord, error) {
	if record == nil {
		return nil, errors.New("feedback record is nil")
	}
	if strings.TrimSpace(record.InterviewID) == "" {
		return nil, errors.New("interview id is required")
	}
	if len(record.ConversationTranscript) == 0 {
		return nil, errors.New("conversation transcript is required")
	}

	stored := *record
	stored.CompletedAt = time.Now().UTC()

	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO interview_results (
            fullname, email, interview_id, conversation_transcript, recommendations, completed_at
        ) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		stored.FullName,
		stored.Email,
		stored.InterviewID,
		string(stored.ConversationTranscript),
		stored.Recommendations,
		formatTime(stored.CompletedAt),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert result: %w", err)
	}
	stored.ID = id
	return &stored, nil
}

// ListResults возвращает результаты по набору интервью в порядке завершения
func (s *Store) ListResults(ctx context.Context, interviewIDs ...string) ([]*FeedbackRecord, error) {
	if len(interviewIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(interviewIDs))
	for i, id := range interviewIDs {
		args[i] = id
	}
	query := `SELECT ` + resultColumns + ` FROM interview_results WHERE interview_id IN (` +
		makePlaceholders(len(interviewIDs)) + `) ORDER BY completed_at, id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var records []*FeedbackRecord
	for rows.Next() {
		record, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// rebind переводит плейсхолдеры ? в $n для Postgres
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
