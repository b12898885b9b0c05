// Package server exposes the tailoring pipeline over HTTP. The surface is
// intentionally small: health and version probes, a resume review
// endpoint, and a tailoring endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/groundedcv/groundedcv/internal/resume"
	"github.com/groundedcv/groundedcv/internal/review"
	"github.com/groundedcv/groundedcv/internal/tailor"
)

const shutdownTimeout = 10 * time.Second

// tailorRunner is the part of tailor.Tailorer the server uses.
type tailorRunner interface {
	Run(ctx context.Context, master *resume.MasterResume, job tailor.Job) (*tailor.Result, error)
}

// Config carries the server's static settings.
type Config struct {
	Addr      string
	AppName   string
	Version   string
	ResumeDir string
}

// Server handles the HTTP API.
type Server struct {
	cfg      Config
	tailorer tailorRunner
	logger   *zap.Logger

	http *http.Server
}

// New builds a Server around the given tailorer. The master resume is
// loaded from cfg.ResumeDir on every request so edits take effect without
// a restart.
func New(cfg Config, tailorer tailorRunner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		tailorer: tailorer,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /api/review", s.handleReview)
	mux.HandleFunc("POST /api/tailor", s.handleTailor)

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"name":    s.cfg.AppName,
		"version": s.cfg.Version,
		"tagline": "Your story. Truthfully tailored.",
		"health":  "/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"app":     s.cfg.AppName,
		"version": s.cfg.Version,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"version": s.cfg.Version})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	master, ok := s.loadMaster(w)
	if !ok {
		return
	}

	report, err := review.Run(review.Deps{Logger: s.logger}, review.DefaultChecks(), master)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "review failed", err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"complete": report.Complete(),
		"issues":   report.BySection(),
	})
}

type tailorRequest struct {
	Job tailor.Job `json:"job"`
}

func (s *Server) handleTailor(w http.ResponseWriter, r *http.Request) {
	var req tailorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := req.Job.Validate(); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid job", err)
		return
	}

	master, ok := s.loadMaster(w)
	if !ok {
		return
	}

	result, err := s.tailorer.Run(r.Context(), master, req.Job)
	if err != nil {
		s.fail(w, r, http.StatusBadGateway, "tailoring failed", err)
		return
	}

	s.respond(w, http.StatusOK, result)
}

// loadMaster reads the master resume directory, writing the error response
// itself when loading fails.
func (s *Server) loadMaster(w http.ResponseWriter) (*resume.MasterResume, bool) {
	master, err := resume.Load(s.cfg.ResumeDir, s.logger)
	if err != nil {
		s.logger.Error("loading master resume", zap.Error(err))
		s.respond(w, http.StatusInternalServerError, map[string]string{
			"error": "master resume unavailable",
		})
		return nil, false
	}
	return master, true
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encoding response", zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	s.logger.Error(message,
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	s.respond(w, status, map[string]string{"error": message})
}
