package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"interview-voice-grader/internal/config"
	"interview-voice-grader/internal/storage"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(context.Background(), config.StoreConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "interviews.db"),
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedInterview(t *testing.T, store *storage.Store, id string) *storage.Interview {
	t.Helper()
	interview := &storage.Interview{
		InterviewID:    id,
		UserEmail:      "recruiter@example.com",
		JobPosition:    "Backend Engineer",
		JobDescription: "Go services",
		Duration:       "30 Min",
		Type:           "Technical",
		QuestionList: storage.QuestionList{InterviewQuestions: []storage.Question{
			{Question: "Q1", Type: "Technical"},
			{Question: "Q2", Type: "Behavioral"},
		}},
	}
	if err := store.CreateInterview(context.Background(), interview); err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}
	return interview
}

func TestCreateAndGetInterview(t *testing.T) {
	store := openTestStore(t)
	seedInterview(t, store, "abc-123")

	got, err := store.GetInterview(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("GetInterview failed: %v", err)
	}
	if got.JobPosition != "Backend Engineer" || got.Duration != "30 Min" {
		t.Fatalf("unexpected interview: %+v", got)
	}
	if texts := got.QuestionList.Texts(); len(texts) != 2 || texts[0] != "Q1" {
		t.Fatalf("unexpected questions: %v", texts)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestCreateInterviewGeneratesID(t *testing.T) {
	store := openTestStore(t)
	interview := &storage.Interview{UserEmail: "r@example.com", JobPosition: "SRE"}
	if err := store.CreateInterview(context.Background(), interview); err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}
	if interview.InterviewID == "" {
		t.Fatal("expected generated interview id")
	}
}

func TestGetInterviewNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetInterview(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertResultNeverOverwrites(t *testing.T) {
	store := openTestStore(t)
	seedInterview(t, store, "abc-123")
	ctx := context.Background()

	first, err := store.InsertResult(ctx, &storage.FeedbackRecord{
		FullName:               "Jane Doe",
		Email:                  "jane@example.com",
		InterviewID:            "abc-123",
		ConversationTranscript: json.RawMessage(`{"rating":{"TechnicalSkills":6}}`),
		Recommendations:        "Not recommended",
	})
	if err != nil {
		t.Fatalf("first InsertResult failed: %v", err)
	}
	second, err := store.InsertResult(ctx, &storage.FeedbackRecord{
		FullName:               "Jane Doe",
		Email:                  "jane@example.com",
		InterviewID:            "abc-123",
		ConversationTranscript: json.RawMessage(`{"rating":{"TechnicalSkills":9}}`),
		Recommendations:        "Not recommended",
	})
	if err != nil {
		t.Fatalf("second InsertResult failed: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct ids, both %d", first.ID)
	}
	if first.CompletedAt.IsZero() {
		t.Fatal("expected completed_at to be set at insert time")
	}

	results, err := store.ListResults(ctx, "abc-123")
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if string(results[0].ConversationTranscript) != `{"rating":{"TechnicalSkills":6}}` {
		t.Fatalf("first record changed: %s", results[0].ConversationTranscript)
	}
	if string(results[1].ConversationTranscript) != `{"rating":{"TechnicalSkills":9}}` {
		t.Fatalf("second record changed: %s", results[1].ConversationTranscript)
	}
}

func TestInsertResultRequiresTranscript(t *testing.T) {
	store := openTestStore(t)
	_, err := store.InsertResult(context.Background(), &storage.FeedbackRecord{InterviewID: "abc-123"})
	if err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestUpdateQuestionList(t *testing.T) {
	store := openTestStore(t)
	seedInterview(t, store, "abc-123")
	ctx := context.Background()

	next := storage.QuestionList{InterviewQuestions: []storage.Question{{Question: "Q3"}}}
	if err := store.UpdateQuestionList(ctx, "abc-123", next); err != nil {
		t.Fatalf("UpdateQuestionList failed: %v", err)
	}
	got, err := store.GetInterview(ctx, "abc-123")
	if err != nil {
		t.Fatalf("GetInterview failed: %v", err)
	}
	if texts := got.QuestionList.Texts(); len(texts) != 1 || texts[0] != "Q3" {
		t.Fatalf("unexpected questions after update: %v", texts)
	}

	if err := store.UpdateQuestionList(ctx, "missing", next); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing interview, got %v", err)
	}
}

func TestListInterviewsFiltersByRecruiter(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedInterview(t, store, "a")
	seedInterview(t, store, "b")
	other := &storage.Interview{InterviewID: "c", UserEmail: "other@example.com", JobPosition: "PM"}
	if err := store.CreateInterview(ctx, other); err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}

	interviews, err := store.ListInterviews(ctx, "recruiter@example.com")
	if err != nil {
		t.Fatalf("ListInterviews failed: %v", err)
	}
	if len(interviews) != 2 {
		t.Fatalf("expected 2 interviews, got %d", len(interviews))
	}
	if interviews[0].InterviewID != "b" {
		t.Fatalf("expected newest first, got %s", interviews[0].InterviewID)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "interviews.db")
	cfg := config.StoreConfig{Driver: "sqlite", DSN: dsn}
	for i := 0; i < 2; i++ {
		store, err := storage.Open(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Open #%d failed: %v", i+1, err)
		}
		_ = store.Close()
	}
}
