package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"interview-voice-grader/internal/config"
	"interview-voice-grader/internal/dashboard"
	"interview-voice-grader/internal/feedback"
	"interview-voice-grader/internal/interviewer"
	"interview-voice-grader/internal/logging"
	"interview-voice-grader/internal/metrics"
	"interview-voice-grader/internal/prompts"
	"interview-voice-grader/internal/session"
	"interview-voice-grader/internal/storage"
	"interview-voice-grader/internal/transcript"
	"interview-voice-grader/internal/voice"
)

type scriptedAgent struct {
	events chan voice.Event
	once   sync.Once
}

func (a *scriptedAgent) Start(context.Context, voice.AssistantConfig) (<-chan voice.Event, error) {
	return a.events, nil
}

func (a *scriptedAgent) Stop(context.Context) error {
	a.once.Do(func() { close(a.events) })
	return nil
}

type staticCompleter struct{ response string }

func (c staticCompleter) Complete(context.Context, string, string) (string, error) {
	return c.response, nil
}

type noopSpawner struct{}

func (noopSpawner) Spawn(string, prompts.QuestionRequest) {}

type fakeQuestions struct {
	list storage.QuestionList
	err  error
}

func (f fakeQuestions) Generate(context.Context, prompts.QuestionRequest) (storage.QuestionList, error) {
	return f.list, f.err
}

type testEnv struct {
	srv     *Server
	store   *storage.Store
	agents  chan *scriptedAgent
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, questions fakeQuestions) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.Open(context.Background(), config.StoreConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(dir, "interviews.db"),
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	sessions, err := session.NewStore(filepath.Join(dir, "sessions"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	m := metrics.NewMetrics()
	pipeline := interviewer.New(interviewer.Deps{
		Feedback:  feedback.New(staticCompleter{response: "```json\n{\"rating\":{\"TechnicalSkills\":6}}\n```"}, m, logging.NewNop()),
		Results:   store,
		Sessions:  sessions,
		Questions: noopSpawner{},
		Metrics:   m,
		Logger:    logging.NewNop(),
	})

	env := &testEnv{store: store, agents: make(chan *scriptedAgent, 4), metrics: m}
	env.srv = New(config.ServerConfig{JoinRateLimit: 10}, Deps{
		Interviews: store,
		Sessions:   sessions,
		Pipeline:   pipeline,
		Questions:  questions,
		NewAgent: func() voice.Agent {
			select {
			case a := <-env.agents:
				return a
			default:
				return &scriptedAgent{events: make(chan voice.Event)}
			}
		},
		Metrics: m,
		Logger:  logging.NewNop(),
	})
	return env
}

func (e *testEnv) seed(t *testing.T, id string) {
	t.Helper()
	err := e.store.CreateInterview(context.Background(), &storage.Interview{
		InterviewID:    id,
		UserEmail:      "recruiter@example.com",
		JobPosition:    "Backend Engineer",
		JobDescription: "Go services",
		Duration:       "15 Min",
		Type:           "Technical",
		QuestionList: storage.QuestionList{InterviewQuestions: []storage.Question{
			{Question: "Q1"}, {Question: "Q2"},
		}},
	})
	if err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies []*http.Cookie, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestJoinRequiresFullName(t *testing.T) {
	env := newTestEnv(t, fakeQuestions{})
	env.seed(t, "abc-123")

	rec := env.do(t, http.MethodPost, "/interview/abc-123/join",
		joinRequest{CandidateName: "Jane", CandidateEmail: "jane@example.com"}, nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestJoinUsesIdentityHeaders(t *testing.T) {
	env := newTestEnv(t, fakeQuestions{})
	env.seed(t, "abc-123")

	rec := env.do(t, http.MethodPost, "/interview/abc-123/join", nil, nil, map[string]string{
		headerAuthName:  "jane   doe",
		headerAuthEmail: "jane@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	sess := decode[session.InterviewSession](t, rec)
	if sess.CandidateName != "Jane Doe" || sess.CandidateEmail != "jane@example.com" || sess.InterviewID != "abc-123" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Fatal("expected client cookie")
	}
}

func TestJoinUnknownInterview(t *testing.T) {
	env := newTestEnv(t, fakeQuestions{})
	rec := env.do(t, http.MethodPost, "/interview/missing/join",
		joinRequest{CandidateName: "Jane Doe", CandidateEmail: "jane@example.com"}, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStartWithoutJoin(t *testing.T) {
	env := newTestEnv(t, fakeQuestions{})
	env.seed(t, "abc-123")
	rec := env.do(t, http.MethodPost, "/interview/abc-123/start", nil,
		[]*http.Cookie{{Name: clientCookie, Value: "nobody"}}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStartWithMismatchedSession(t *testing.T) {
	env := newTestEnv(t, fakeQuestions{})
	env.seed(t, "abc-123")
	env.seed(t, "def-456")

	join := env.do(t, http.MethodPost, "/interview/abc-123/join",
		joinRequest{CandidateName: "Jane Doe", CandidateEmail: "jane@example.com"}, nil, nil)
	cookies := join.Result().Cookies()

	rec := env.do(t, http.MethodPost, "/interview/def-456/start", nil, cookies, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/interview/abc-123/start", nil, cookies, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("mismatch must clear the cache; status = %d", rec.Code)
	}
}

func TestFullInterviewFlow(t *testing.T) {
	env := newTestEnv(t, fakeQuestions{})
	env.seed(t, "abc-123")

	agent := &scriptedAgent{events: make(chan voice.Event, 4)}
	agent.events <- voice.Event{Type: voice.EventCallStart}
	agent.events <- voice.Event{Type: voice.EventMessage, Message: &voice.Message{Conversation: []transcript.Entry{
		{Role: "system", Content: "prompt"},
		{Role: "assistant", Content: "Q1"},
		{Role: "user", Content: "answer1"},
	}}}
	agent.events <- voice.Event{Type: voice.EventCallEnd}
	env.agents <- agent

	join := env.do(t, http.MethodPost, "/interview/abc-123/join",
		joinRequest{CandidateName: "Jane Doe", CandidateEmail: "jane@example.com"}, nil, nil)
	if join.Code != http.StatusOK {
		t.Fatalf("join status = %d", join.Code)
	}
	cookies := join.Result().Cookies()

	start := env.do(t, http.MethodPost, "/interview/abc-123/start", nil, cookies, nil)
	if start.Code != http.StatusAccepted {
		t.Fatalf("start status = %d body = %s", start.Code, start.Body.String())
	}

	done := make(chan struct{})
	go func() {
		env.srv.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("interview never finished")
	}

	status := decode[interviewer.Status](t, env.do(t, http.MethodGet, "/interview/abc-123/status", nil, cookies, nil))
	if !status.Done || status.Redirect != "/interview/abc-123/completed" {
		t.Fatalf("unexpected status %+v", status)
	}

	list := env.do(t, http.MethodGet, "/interviews", nil, nil, map[string]string{headerAuthEmail: "recruiter@example.com"})
	snap := decode[dashboard.Snapshot](t, list)
	if len(snap.Interviews) != 1 || len(snap.Interviews[0].Candidates) != 1 {
		t.Fatalf("unexpected dashboard %+v", snap)
	}
	candidate := snap.Interviews[0].Candidates[0]
	if candidate.Record.FullName != "Jane Doe" || candidate.Overall != 6 || candidate.Record.Recommendations != "Not recommended" {
		t.Fatalf("unexpected candidate %+v", candidate)
	}

	rec := env.do(t, http.MethodPost, "/interview/abc-123/start", nil, cookies, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("session should be cleared after completion, status = %d", rec.Code)
	}
}

func TestStopEndsLiveInterview(t *testing.T) {
	env := newTestEnv(t, fakeQuestions{})
	env.seed(t, "abc-123")

	agent := &scriptedAgent{events: make(chan voice.Event, 2)}
	agent.events <- voice.Event{Type: voice.EventMessage, Message: &voice.Message{Conversation: []transcript.Entry{
		{Role: "assistant", Content: "Q1"},
	}}}
	env.agents <- agent

	join := env.do(t, http.MethodPost, "/interview/abc-123/join",
		joinRequest{CandidateName: "Jane Doe", CandidateEmail: "jane@example.com"}, nil, nil)
	cookies := join.Result().Cookies()
	if rec := env.do(t, http.MethodPost, "/interview/abc-123/start", nil, cookies, nil); rec.Code != http.StatusAccepted {
		t.Fatalf("start status = %d", rec.Code)
	}

	if rec := env.do(t, http.MethodPost, "/interview/abc-123/stop", nil, cookies, nil); rec.Code != http.StatusAccepted {
		t.Fatalf("stop status = %d", rec.Code)
	}
	env.srv.Wait()

	results, err := env.store.ListResults(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result after stop, got %d", len(results))
	}
}

func TestJoinRateLimited(t *testing.T) {
	env := newTestEnv(t, fakeQuestions{})
	env.seed(t, "abc-123")
	cookies := []*http.Cookie{{Name: clientCookie, Value: "client1"}}

	for i := 0; i < 10; i++ {
		rec := env.do(t, http.MethodPost, "/interview/abc-123/join",
			joinRequest{CandidateName: "Jane Doe", CandidateEmail: "jane@example.com"}, cookies, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := env.do(t, http.MethodPost, "/interview/abc-123/join",
		joinRequest{CandidateName: "Jane Doe", CandidateEmail: "jane@example.com"}, cookies, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestCreateInterview(t *testing.T) {
	list := storage.QuestionList{InterviewQuestions: []storage.Question{{Question: "Why Go?", Type: "Technical"}}}
	env := newTestEnv(t, fakeQuestions{list: list})

	rec := env.do(t, http.MethodPost, "/interviews",
		prompts.QuestionRequest{JobPosition: "Backend Engineer", Duration: "15 Min", Type: "Technical"},
		nil, map[string]string{headerAuthEmail: "recruiter@example.com"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	created := decode[storage.Interview](t, rec)
	if created.InterviewID == "" || created.UserEmail != "recruiter@example.com" {
		t.Fatalf("unexpected interview %+v", created)
	}

	view := decode[interviewView](t, env.do(t, http.MethodGet, "/interview/"+created.InterviewID, nil, nil, nil))
	if view.QuestionCount != 1 || view.JobPosition != "Backend Engineer" {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestCreateInterviewRequiresRecruiter(t *testing.T) {
	env := newTestEnv(t, fakeQuestions{})
	rec := env.do(t, http.MethodPost, "/interviews", prompts.QuestionRequest{JobPosition: "X"}, nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCreateInterviewGenerationFailure(t *testing.T) {
	env := newTestEnv(t, fakeQuestions{err: errors.New("model down")})
	rec := env.do(t, http.MethodPost, "/interviews", prompts.QuestionRequest{JobPosition: "X"},
		nil, map[string]string{headerAuthEmail: "recruiter@example.com"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, fakeQuestions{})
	if rec := env.do(t, http.MethodGet, "/healthz", nil, nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	env.metrics.IncrementSessionsStarted()
	snap := decode[metrics.Snapshot](t, env.do(t, http.MethodGet, "/metrics", nil, nil, nil))
	if snap.SessionsStarted != 1 {
		t.Fatalf("unexpected metrics %+v", snap)
	}
}

func TestErrorAndCompletedViews(t *testing.T) {
	env := newTestEnv(t, fakeQuestions{})
	if rec := env.do(t, http.MethodGet, "/interview/error", nil, nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("error view status = %d", rec.Code)
	}
	body := decode[map[string]string](t, env.do(t, http.MethodGet, "/interview/abc-123/completed", nil, nil, nil))
	if body["interview_id"] != "abc-123" {
		t.Fatalf("unexpected completed view %+v", body)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(0, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.IsAllowed("a") || !rl.IsAllowed("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.IsAllowed("a") {
		t.Fatal("third request should be limited")
	}
	now = now.Add(time.Minute)
	if !rl.IsAllowed("a") {
		t.Fatal("window should have expired")
	}
	now = now.Add(2 * time.Minute)
	rl.Cleanup()
	if len(rl.requests) != 0 {
		t.Fatalf("cleanup left %d keys", len(rl.requests))
	}
}
