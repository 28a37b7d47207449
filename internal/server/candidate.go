package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"interview-voice-grader/internal/interviewer"
	"interview-voice-grader/internal/session"
	"interview-voice-grader/internal/storage"
	"interview-voice-grader/internal/voice"
)

// Заголовки, которые выставляет провайдер идентификации
const (
	headerAuthEmail   = "X-Auth-Email"
	headerAuthName    = "X-Auth-Name"
	headerAuthPicture = "X-Auth-Picture"
)

type joinRequest struct {
	CandidateName    string `json:"candidate_name"`
	CandidateEmail   string `json:"candidate_email"`
	CandidatePicture string `json:"candidate_picture"`
}

type interviewView struct {
	InterviewID    string `json:"interview_id"`
	JobPosition    string `json:"jobposition"`
	JobDescription string `json:"jobdescription"`
	Duration       string `json:"duration"`
	Type           string `json:"type"`
	QuestionCount  int    `json:"question_count"`
}

func (s *Server) handleInterview(w http.ResponseWriter, r *http.Request) {
	interview, ok := s.loadInterview(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, interviewView{
		InterviewID:    interview.InterviewID,
		JobPosition:    interview.JobPosition,
		JobDescription: interview.JobDescription,
		Duration:       interview.Duration,
		Type:           interview.Type,
		QuestionCount:  len(interview.QuestionList.Texts()),
	})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := firstNonEmpty(req.CandidateName, r.Header.Get(headerAuthName))
	email := firstNonEmpty(req.CandidateEmail, r.Header.Get(headerAuthEmail))
	picture := firstNonEmpty(req.CandidatePicture, r.Header.Get(headerAuthPicture))

	name, ok := normalizeFullName(name)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "please enter your full name (first and last name)")
		return
	}
	if email == "" {
		s.writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	interview, ok := s.loadInterview(w, r)
	if !ok {
		return
	}

	clientID := s.clientID(w, r)
	sess := session.NewFromInterview(interview, name, email, picture)
	if err := s.sessions.Save(clientID, sess); err != nil {
		s.logger.Error("failed to save interview session", slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, "failed to save interview session")
		return
	}

	s.logger.Info("candidate joined",
		slog.String("interview_id", interview.InterviewID),
		slog.String("client_id", clientID))
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	interviewID := r.PathValue("id")
	clientID, ok := s.requireClient(w, r)
	if !ok {
		return
	}

	sess, err := s.sessions.Load(clientID, interviewID)
	switch {
	case errors.Is(err, session.ErrSessionMismatch):
		s.writeError(w, http.StatusConflict, "cached session belongs to another interview, please join again")
		return
	case errors.Is(err, session.ErrNoSession):
		s.writeError(w, http.StatusNotFound, "join the interview first")
		return
	case err != nil:
		s.logger.Error("failed to load interview session", slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, "failed to load interview session")
		return
	}

	assistant, err := voice.BuildAssistant(s.assistant, sess)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.liveMu.Lock()
	if existing, found := s.live[clientID]; found && !isDone(existing.live) {
		s.liveMu.Unlock()
		s.writeError(w, http.StatusConflict, "interview already in progress")
		return
	}
	live := s.pipeline.NewLive(clientID, sess, s.newAgent())
	s.live[clientID] = &liveEntry{live: live, startedAt: time.Now()}
	s.liveWG.Add(1)
	s.liveMu.Unlock()

	go func() {
		defer s.liveWG.Done()
		live.Run(s.baseCtx, assistant)
	}()

	s.writeJSON(w, http.StatusAccepted, live.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	live, ok := s.liveFor(w, r)
	if !ok {
		return
	}
	if err := live.Stop(r.Context()); err != nil {
		s.logger.Warn("failed to stop voice session", slog.String("error", err.Error()))
	}
	s.writeJSON(w, http.StatusAccepted, live.Status())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	live, ok := s.liveFor(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, live.Status())
}

func (s *Server) handleCompleted(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"interview_id": r.PathValue("id"),
		"message":      "Interview completed! Thank you for participating.",
	})
}

func (s *Server) handleErrorView(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Something went wrong with your interview. Please return to the interview link and try again.",
	})
}

func (s *Server) loadInterview(w http.ResponseWriter, r *http.Request) (*storage.Interview, bool) {
	interview, err := s.interviews.GetInterview(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "interview not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("failed to load interview", slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, "failed to load interview")
		return nil, false
	}
	return interview, true
}

func (s *Server) liveFor(w http.ResponseWriter, r *http.Request) (*interviewer.Live, bool) {
	clientID, ok := s.requireClient(w, r)
	if !ok {
		return nil, false
	}
	s.liveMu.Lock()
	entry, found := s.live[clientID]
	s.liveMu.Unlock()
	if !found || entry.live.Status().InterviewID != r.PathValue("id") {
		s.writeError(w, http.StatusNotFound, "no interview in progress")
		return nil, false
	}
	return entry.live, true
}

// clientID возвращает ключ клиента из cookie, выдавая новый при необходимости
func (s *Server) clientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(clientCookie); err == nil && session.ValidClientID(c.Value) {
		return c.Value
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) requireClient(w http.ResponseWriter, r *http.Request) (string, bool) {
	c, err := r.Cookie(clientCookie)
	if err != nil || !session.ValidClientID(c.Value) {
		s.writeError(w, http.StatusNotFound, "join the interview first")
		return "", false
	}
	return c.Value, true
}

func isDone(live *interviewer.Live) bool {
	select {
	case <-live.Done():
		return true
	default:
		return false
	}
}

// normalizeFullName схлопывает пробелы и приводит имя к Title Case.
// Имя должно состоять хотя бы из двух слов.
func normalizeFullName(name string) (string, bool) {
	words := strings.Fields(name)
	if len(words) < 2 {
		return "", false
	}
	return cases.Title(language.English).String(strings.Join(words, " ")), true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
