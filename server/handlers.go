package server

import (
	"clipsplit/models"
	"clipsplit/splitter"
	"clipsplit/store"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 32 << 20

type indexData struct {
	Job            *models.SplitJob
	Clips          []models.ClipArtifact
	Failed         []models.ClipArtifact
	Error          string
	Busy           bool
	DefaultMinutes int
	Accept         string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Busy:           s.busy.Load(),
		DefaultMinutes: s.opts.DefaultMinutes,
		Accept:         strings.Join(AcceptedExtensions, ","),
	}
	if job := s.Job(); job != nil {
		data.Job = job
		data.Clips = job.Succeeded()
		data.Failed = job.Failed()
	}
	s.mu.Lock()
	data.Error = s.lastErr
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index", data); err != nil {
		s.logger.Error().Err(err).Msg("failed to render index")
	}
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	if !s.busy.CompareAndSwap(false, true) {
		http.Error(w, "a split is already running", http.StatusConflict)
		return
	}
	defer s.busy.Store(false)

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	minutes, err := strconv.Atoi(strings.TrimSpace(r.FormValue("minutes")))
	if err != nil {
		http.Error(w, "split duration must be a whole number of minutes", http.StatusBadRequest)
		return
	}
	if _, err := splitter.MinutesToSeconds(minutes); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		http.Error(w, "missing video file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(AcceptedExtensions, ext) {
		http.Error(w, fmt.Sprintf("unsupported file type %q, expected one of %s",
			ext, strings.Join(AcceptedExtensions, ", ")), http.StatusBadRequest)
		return
	}

	sourcePath, err := s.saveUpload(file, ext)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to save upload")
		http.Error(w, "failed to save upload", http.StatusInternalServerError)
		return
	}

	s.logger.Info().
		Str("upload", header.Filename).
		Str("saved", sourcePath).
		Int("minutes", minutes).
		Msg("splitting upload")

	job, err := s.splitter.SplitMinutes(r.Context(), sourcePath, minutes)

	s.mu.Lock()
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.job = job
		s.lastErr = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn().Err(err).Str("source", sourcePath).Msg("split failed")
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// saveUpload copies the uploaded file to UploadDir under a fresh name.
func (s *Server) saveUpload(src io.Reader, ext string) (string, error) {
	if err := os.MkdirAll(s.opts.UploadDir, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrStorage, err)
	}

	path := filepath.Join(s.opts.UploadDir, uuid.NewString()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrStorage, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: %v", models.ErrStorage, err)
	}
	return path, nil
}

func (s *Server) handleClip(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolveClip(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, path)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolveClip(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func (s *Server) resolveClip(w http.ResponseWriter, r *http.Request) (string, bool) {
	path, err := store.Resolve(s.splitter.OutputDir(), r.PathValue("name"))
	switch {
	case err == nil:
		return path, true
	case errors.Is(err, fs.ErrNotExist):
		http.NotFound(w, r)
	default:
		http.Error(w, err.Error(), statusFor(err))
	}
	return "", false
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	if !s.busy.CompareAndSwap(false, true) {
		http.Error(w, "a split is running", http.StatusConflict)
		return
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.splitter.Purge(s.job); err != nil {
		s.logger.Error().Err(err).Msg("purge failed")
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if err := store.Purge(s.opts.UploadDir); err != nil {
		s.logger.Error().Err(err).Msg("failed to purge uploads")
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	s.job = nil
	s.lastErr = ""
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type clipsResponse struct {
	JobID     string                `json:"job_id,omitempty"`
	Source    string                `json:"source,omitempty"`
	Artifacts []models.ClipArtifact `json:"artifacts"`
}

// handleAPIClips returns the current job's artifacts, failures included.
// Without a job it falls back to what is on disk.
func (s *Server) handleAPIClips(w http.ResponseWriter, r *http.Request) {
	var resp clipsResponse

	job := s.Job()
	if job != nil {
		resp.JobID = job.ID
		resp.Source = filepath.Base(job.Source.Path)
	}
	artifacts, err := s.splitter.List(job)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	resp.Artifacts = artifacts
	if resp.Artifacts == nil {
		resp.Artifacts = []models.ClipArtifact{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode clips")
	}
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrProbeFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
