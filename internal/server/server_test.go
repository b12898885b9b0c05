package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/groundedcv/groundedcv/internal/agent"
	"github.com/groundedcv/groundedcv/internal/resume"
	"github.com/groundedcv/groundedcv/internal/tailor"
)

type fakeTailorer struct {
	result *tailor.Result
	err    error
	calls  int
}

func (f *fakeTailorer) Run(_ context.Context, _ *resume.MasterResume, _ tailor.Job) (*tailor.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func writeResumeDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	profile := "name: Jane Doe\nemail: jane@example.com\nsummary: Engineer.\n"
	if err := os.WriteFile(filepath.Join(dir, resume.ProfileFile), []byte(profile), 0o644); err != nil {
		t.Fatalf("writing profile fixture: %v", err)
	}
	return dir
}

func newTestServer(t *testing.T, tailorer tailorRunner) *Server {
	t.Helper()

	return New(Config{
		Addr:      "127.0.0.1:0",
		AppName:   "groundedcv",
		Version:   "test",
		ResumeDir: writeResumeDir(t),
	}, tailorer, zap.NewNop())
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeTailorer{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "healthy" || body["app"] != "groundedcv" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestReviewEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeTailorer{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/review", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Complete bool                `json:"complete"`
		Issues   map[string][]string `json:"issues"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}

	// The fixture has no phone, no experience, and no skills.
	if body.Complete {
		t.Fatal("expected incomplete resume")
	}
	if len(body.Issues["experience"]) == 0 {
		t.Fatalf("expected experience issues, got %v", body.Issues)
	}
}

func TestTailorEndpoint(t *testing.T) {
	tailorer := &fakeTailorer{result: &tailor.Result{
		RunID: "run-1",
		Outcome: tailor.Outcome{
			Summary:  "Tailored summary.",
			FitScore: 0.9,
			Fit:      true,
		},
		Metadata: agent.Metadata{Agent: "tailor"},
	}}
	srv := newTestServer(t, tailorer)

	payload := `{"job": {"title": "Engineer", "company": "Acme", "description": "Go work"}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tailor", strings.NewReader(payload))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if tailorer.calls != 1 {
		t.Fatalf("expected 1 tailoring run, got %d", tailorer.calls)
	}

	var result tailor.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if result.RunID != "run-1" || !result.Outcome.Fit {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestTailorEndpointRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, &fakeTailorer{})

	cases := []struct {
		name    string
		payload string
	}{
		{"malformed json", "{"},
		{"missing description", `{"job": {"title": "Engineer"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/tailor", strings.NewReader(tc.payload))
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestTailorEndpointUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, &fakeTailorer{err: errors.New("service unavailable")})

	payload := `{"job": {"title": "Engineer", "description": "Go work"}}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tailor", strings.NewReader(payload))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestMissingResumeDir(t *testing.T) {
	srv := New(Config{
		Addr:      "127.0.0.1:0",
		AppName:   "groundedcv",
		Version:   "test",
		ResumeDir: filepath.Join(t.TempDir(), "missing"),
	}, &fakeTailorer{}, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/review", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
