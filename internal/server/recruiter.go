package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"interview-voice-grader/internal/dashboard"
	"interview-voice-grader/internal/prompts"
	"interview-voice-grader/internal/questions"
	"interview-voice-grader/internal/storage"
)

func (s *Server) handleCreateInterview(w http.ResponseWriter, r *http.Request) {
	recruiter := strings.TrimSpace(r.Header.Get(headerAuthEmail))
	if recruiter == "" {
		s.writeError(w, http.StatusUnauthorized, "recruiter identity is required")
		return
	}

	var req prompts.QuestionRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.JobPosition = strings.TrimSpace(req.JobPosition)
	if req.JobPosition == "" {
		s.writeError(w, http.StatusBadRequest, "jobposition is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()
	list, err := s.questions.Generate(ctx, req)
	if err != nil {
		s.logger.Error("question generation failed", slog.String("error", err.Error()))
		status := http.StatusBadGateway
		if errors.Is(err, questions.ErrNoQuestionBlock) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, "failed to generate interview questions")
		return
	}

	interview := &storage.Interview{
		UserEmail:      recruiter,
		JobPosition:    req.JobPosition,
		JobDescription: req.JobDescription,
		Duration:       req.Duration,
		Type:           req.Type,
		QuestionList:   list,
	}
	if err := s.interviews.CreateInterview(r.Context(), interview); err != nil {
		s.logger.Error("failed to create interview", slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, "failed to create interview")
		return
	}

	s.logger.Info("interview created",
		slog.String("interview_id", interview.InterviewID),
		slog.Int("questions", len(list.InterviewQuestions)))
	s.writeJSON(w, http.StatusCreated, interview)
}

func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	recruiter := strings.TrimSpace(r.Header.Get(headerAuthEmail))
	if recruiter == "" {
		s.writeError(w, http.StatusUnauthorized, "recruiter identity is required")
		return
	}
	snap, err := dashboard.Load(r.Context(), s.interviews, recruiter)
	if err != nil {
		s.logger.Error("failed to load dashboard", slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, "failed to load interviews")
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}
