package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stagepush/internal/scheduler"
	"stagepush/pkg/logx"
)

type stubJobs struct {
	jobs    map[string]string
	history []scheduler.HistoryItem
	runErr  error
	ran     []string
}

func (s *stubJobs) Jobs() map[string]string          { return s.jobs }
func (s *stubJobs) History() []scheduler.HistoryItem { return s.history }
func (s *stubJobs) RunNow(_ context.Context, name string) error {
	s.ran = append(s.ran, name)
	return s.runErr
}

func do(t *testing.T, srv *Server, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.router().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	srv := New(Config{Enabled: true}, &stubJobs{}, logx.Nop())
	w := do(t, srv, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestJobsListing(t *testing.T) {
	t.Parallel()
	jobs := &stubJobs{
		jobs:    map[string]string{"marketing": "0 12 * * *"},
		history: []scheduler.HistoryItem{{Job: "marketing", Manual: true}},
	}
	srv := New(Config{Enabled: true}, jobs, logx.Nop())

	w := do(t, srv, http.MethodGet, "/jobs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Jobs    map[string]string `json:"jobs"`
		History []struct {
			Job string `json:"Job"`
		} `json:"history"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Jobs["marketing"] != "0 12 * * *" {
		t.Fatalf("jobs = %v", body.Jobs)
	}
	if len(body.History) != 1 || body.History[0].Job != "marketing" {
		t.Fatalf("history = %v", body.History)
	}
}

func TestRunEndpoint(t *testing.T) {
	t.Parallel()
	jobs := &stubJobs{jobs: map[string]string{"marketing": ""}}
	srv := New(Config{Enabled: true}, jobs, logx.Nop())

	w := do(t, srv, http.MethodPost, "/jobs/marketing/run", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(jobs.ran) != 1 || jobs.ran[0] != "marketing" {
		t.Fatalf("ran = %v", jobs.ran)
	}

	w = do(t, srv, http.MethodPost, "/jobs/unknown/run", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown job: status = %d, want 404", w.Code)
	}

	jobs.runErr = scheduler.ErrAlreadyRunning
	w = do(t, srv, http.MethodPost, "/jobs/marketing/run", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("overlap: status = %d, want 409", w.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	t.Parallel()
	srv := New(Config{Enabled: true, Token: "s3cret"}, &stubJobs{}, logx.Nop())

	if w := do(t, srv, http.MethodGet, "/healthz", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", w.Code)
	}
	if w := do(t, srv, http.MethodGet, "/healthz", "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d, want 401", w.Code)
	}
	if w := do(t, srv, http.MethodGet, "/healthz", "s3cret"); w.Code != http.StatusOK {
		t.Fatalf("good token: status = %d, want 200", w.Code)
	}
}
