package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"interview-voice-grader/internal/logging"
	"interview-voice-grader/internal/storage"
)

type fakeSource struct {
	interviews []*storage.Interview
	results    []*storage.FeedbackRecord
	gotIDs     []string
}

func (f *fakeSource) ListInterviews(_ context.Context, email string) ([]*storage.Interview, error) {
	var out []*storage.Interview
	for _, iv := range f.interviews {
		if iv.UserEmail == email {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (f *fakeSource) ListResults(_ context.Context, ids ...string) ([]*storage.FeedbackRecord, error) {
	f.gotIDs = ids
	return f.results, nil
}

func TestLoadGroupsResultsAndScores(t *testing.T) {
	src := &fakeSource{
		interviews: []*storage.Interview{
			{InterviewID: "abc-123", UserEmail: "r@example.com", JobPosition: "Backend"},
			{InterviewID: "def-456", UserEmail: "r@example.com", JobPosition: "Frontend"},
			{InterviewID: "zzz", UserEmail: "other@example.com"},
		},
		results: []*storage.FeedbackRecord{
			{ID: 1, InterviewID: "abc-123", FullName: "Jane Doe",
				ConversationTranscript: json.RawMessage(`{"rating":{"TechnicalSkills":8,"Communication":7}}`)},
			{ID: 2, InterviewID: "abc-123", FullName: "John Roe",
				ConversationTranscript: json.RawMessage(`{"feedback":{"rating":{"TechnicalSkills":4,"Experience":"n/a"}}}`)},
		},
	}

	snap, err := Load(context.Background(), src, "r@example.com")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(src.gotIDs) != 2 {
		t.Fatalf("results requested for %v", src.gotIDs)
	}
	if len(snap.Interviews) != 2 {
		t.Fatalf("expected 2 interviews, got %d", len(snap.Interviews))
	}
	first := snap.Interviews[0]
	if len(first.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(first.Candidates))
	}
	if first.Candidates[0].Overall != 8 || first.Candidates[1].Overall != 4 {
		t.Fatalf("unexpected scores %d %d", first.Candidates[0].Overall, first.Candidates[1].Overall)
	}
	if len(snap.Interviews[1].Candidates) != 0 {
		t.Fatal("second interview should have no candidates")
	}
}

func TestLoadNoInterviews(t *testing.T) {
	snap, err := Load(context.Background(), &fakeSource{}, "nobody@example.com")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snap.Interviews) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap.Interviews)
	}
}

func TestRefreshDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	loader := func(ctx context.Context) (*Snapshot, error) {
		n := calls.Add(1)
		if n == 1 {
			<-release
			return &Snapshot{Interviews: []InterviewSummary{{Interview: &storage.Interview{InterviewID: "old"}}}}, nil
		}
		return &Snapshot{Interviews: []InterviewSummary{{Interview: &storage.Interview{InterviewID: "new"}}}}, nil
	}
	p := NewPoller(loader, time.Hour, logging.NewNop(), nil)

	var wg sync.WaitGroup
	var slowApplied bool
	wg.Add(1)
	go func() {
		defer wg.Done()
		slowApplied, _ = p.Refresh(context.Background())
	}()

	for calls.Load() < 1 {
		time.Sleep(time.Millisecond)
	}
	applied, err := p.Refresh(context.Background())
	if err != nil || !applied {
		t.Fatalf("fast refresh: applied=%v err=%v", applied, err)
	}

	close(release)
	wg.Wait()

	if slowApplied {
		t.Fatal("stale refresh must not be applied")
	}
	snap := p.Snapshot()
	if snap == nil || snap.Interviews[0].Interview.InterviewID != "new" || snap.Generation != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestRefreshErrorKeepsSnapshot(t *testing.T) {
	fail := false
	loader := func(ctx context.Context) (*Snapshot, error) {
		if fail {
			return nil, errors.New("store down")
		}
		return &Snapshot{}, nil
	}
	p := NewPoller(loader, time.Hour, logging.NewNop(), nil)

	if _, err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	first := p.Snapshot()

	fail = true
	if _, err := p.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if p.Snapshot() != first {
		t.Fatal("failed refresh replaced the snapshot")
	}
	if p.Err() == nil {
		t.Fatal("expected Err to report the failure")
	}
}

func TestStartTicksAndStop(t *testing.T) {
	updates := make(chan *Snapshot, 10)
	loader := func(ctx context.Context) (*Snapshot, error) { return &Snapshot{}, nil }
	p := NewPoller(loader, 10*time.Millisecond, logging.NewNop(), func(s *Snapshot) {
		select {
		case updates <- s:
		default:
		}
	})

	p.Start(context.Background())
	for i := 0; i < 2; i++ {
		select {
		case <-updates:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for update %d", i)
		}
	}
	p.Stop()
	p.Stop()
}
