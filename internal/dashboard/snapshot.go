// Package dashboard builds the recruiter's view of interviews and results
// and keeps it fresh with a poller.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"interview-voice-grader/internal/feedback"
	"interview-voice-grader/internal/storage"
)

// Source is the read side of the store the dashboard needs.
type Source interface {
	ListInterviews(ctx context.Context, userEmail string) ([]*storage.Interview, error)
	ListResults(ctx context.Context, interviewIDs ...string) ([]*storage.FeedbackRecord, error)
}

// Candidate is one completed attempt with its computed overall score.
type Candidate struct {
	Record  *storage.FeedbackRecord `json:"record"`
	Overall int                     `json:"overall_score"`
}

// InterviewSummary groups an interview with every attempt made on it.
type InterviewSummary struct {
	Interview  *storage.Interview `json:"interview"`
	Candidates []Candidate        `json:"candidates"`
}

// Snapshot is one complete dashboard fetch.
type Snapshot struct {
	Generation uint64             `json:"generation"`
	FetchedAt  time.Time          `json:"fetched_at"`
	Interviews []InterviewSummary `json:"interviews"`
}

// Load fetches the recruiter's interviews and attaches their results.
func Load(ctx context.Context, src Source, recruiterEmail string) (*Snapshot, error) {
	interviews, err := src.ListInterviews(ctx, recruiterEmail)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}

	snap := &Snapshot{FetchedAt: time.Now().UTC(), Interviews: make([]InterviewSummary, 0, len(interviews))}
	if len(interviews) == 0 {
		return snap, nil
	}

	ids := make([]string, 0, len(interviews))
	index := make(map[string]int, len(interviews))
	for i, iv := range interviews {
		ids = append(ids, iv.InterviewID)
		index[iv.InterviewID] = i
		snap.Interviews = append(snap.Interviews, InterviewSummary{Interview: iv, Candidates: []Candidate{}})
	}

	results, err := src.ListResults(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	for _, rec := range results {
		i, ok := index[rec.InterviewID]
		if !ok {
			continue
		}
		snap.Interviews[i].Candidates = append(snap.Interviews[i].Candidates, Candidate{
			Record:  rec,
			Overall: feedback.OverallScore(feedback.RatingFromRecord(rec.ConversationTranscript)),
		})
	}
	return snap, nil
}
