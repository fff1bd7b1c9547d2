// Package server is the web front end: upload a video, split it and
// preview or download the clips.
package server

import (
	"clipsplit/models"
	"clipsplit/splitter"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// AcceptedExtensions lists the upload containers the form accepts.
var AcceptedExtensions = []string{".mp4", ".mov", ".avi", ".mkv"}

// Options configure a Server.
type Options struct {
	// UploadDir receives uploaded sources, named <uuid><ext>.
	UploadDir string

	// MaxUploadBytes caps the request body of a split.
	MaxUploadBytes int64

	// DefaultMinutes pre-fills the split duration field.
	DefaultMinutes int
}

// Server holds at most one split job at a time.
type Server struct {
	splitter *splitter.Splitter
	opts     Options
	logger   zerolog.Logger
	tmpl     *template.Template

	// busy is set while a split or purge runs; a second request gets 409.
	busy atomic.Bool

	mu      sync.Mutex
	job     *models.SplitJob
	lastErr string
}

// New creates a Server.
func New(s *splitter.Splitter, opts Options, logger zerolog.Logger) (*Server, error) {
	if s == nil {
		return nil, fmt.Errorf("server needs a splitter")
	}
	if strings.TrimSpace(opts.UploadDir) == "" {
		return nil, fmt.Errorf("%w: upload directory cannot be empty", models.ErrInvalidArgument)
	}
	if opts.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("%w: upload limit must be positive", models.ErrInvalidArgument)
	}
	if opts.DefaultMinutes <= 0 {
		opts.DefaultMinutes = 1
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		splitter: s,
		opts:     opts,
		logger:   logger.With().Str("component", "server").Logger(),
		tmpl:     tmpl,
	}, nil
}

// Handler returns the routes of the web UI.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /split", s.handleSplit)
	mux.HandleFunc("GET /clips/{name}", s.handleClip)
	mux.HandleFunc("GET /download/{name}", s.handleDownload)
	mux.HandleFunc("POST /purge", s.handlePurge)
	mux.HandleFunc("GET /api/clips", s.handleAPIClips)
	return s.logRequests(mux)
}

// Job returns a copy of the current job, or nil.
func (s *Server) Job() *models.SplitJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return nil
	}
	cp := *s.job
	cp.Artifacts = append([]models.ClipArtifact(nil), s.job.Artifacts...)
	return &cp
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("web UI listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
