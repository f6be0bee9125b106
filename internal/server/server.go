// Package server exposes the extraction pipeline and the metric
// collection over an HTTP JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/urduaiorg/tracker/constants"
	"github.com/urduaiorg/tracker/internal/common"
	"github.com/urduaiorg/tracker/internal/entity"
	"github.com/urduaiorg/tracker/internal/export"
	"github.com/urduaiorg/tracker/internal/store"
	"github.com/urduaiorg/tracker/internal/tracker"
	"github.com/urduaiorg/tracker/internal/upload"
)

// maxUploadBytes caps a whole multipart upload request.
const maxUploadBytes = 50 << 20

// Config holds the HTTP server settings.
type Config struct {
	Addr     string
	SpoolDir string // where uploaded payloads are spooled; "" means os.TempDir
}

// Server wires the job tracker, the metric collection, and the upload
// controller into an HTTP API.
type Server struct {
	cfg     Config
	ctrl    *upload.Controller
	jobs    *tracker.Store
	metrics *store.AnalyticsStore
	brand   *store.BrandStore
	export  *export.Service
	logger  *slog.Logger

	httpServer *http.Server
}

func New(
	cfg Config,
	ctrl *upload.Controller,
	jobs *tracker.Store,
	metrics *store.AnalyticsStore,
	brand *store.BrandStore,
	exp *export.Service,
	logger *slog.Logger,
) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		ctrl:    ctrl,
		jobs:    jobs,
		metrics: metrics,
		brand:   brand,
		export:  exp,
		logger:  logger,
	}
}

// Handler builds the route table. Exposed separately so tests can
// drive it through httptest without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/uploads", s.handleUpload)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("DELETE /api/jobs/{id}", s.handleCancelJob)
	mux.HandleFunc("GET /api/analytics", s.handleListAnalytics)
	mux.HandleFunc("POST /api/analytics", s.handleCreateAnalytics)
	mux.HandleFunc("DELETE /api/analytics", s.handleClearAnalytics)
	mux.HandleFunc("PUT /api/analytics/{id}", s.handleUpdateAnalytics)
	mux.HandleFunc("DELETE /api/analytics/{id}", s.handleDeleteAnalytics)
	mux.HandleFunc("GET /api/brand-settings", s.handleGetBrand)
	mux.HandleFunc("POST /api/brand-settings", s.handleSaveBrand)
	mux.HandleFunc("GET /api/export/xlsx", s.handleExport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Start listens until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// handleUpload accepts one or more files under the multipart field
// "files", spools each to disk, and starts a job per file. The
// response lists the created jobs; classification failures show up as
// jobs already in the error state.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parse multipart form: %v", err))
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	created := make([]entity.ProcessingJob, 0, len(files))
	for _, fh := range files {
		path, size, err := s.spool(fh.Filename, fh)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("spool %s: %v", fh.Filename, err))
			return
		}
		id, err := s.ctrl.Submit(upload.FileInput{
			Name:    fh.Filename,
			Size:    size,
			Path:    path,
			Cleanup: true,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if job, ok := s.jobs.Get(id); ok {
			created = append(created, job)
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": created})
}

func (s *Server) spool(name string, fh *multipart.FileHeader) (string, int64, error) {
	src, err := fh.Open()
	if err != nil {
		return "", 0, err
	}
	defer src.Close()

	dir := s.cfg.SpoolDir
	if dir == "" {
		dir = os.TempDir()
	}
	dst, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(name))
	if err != nil {
		return "", 0, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(dst.Name())
		return "", 0, err
	}
	return dst.Name(), size, nil
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobs.List())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	job, found := s.jobs.Get(id)
	if !found {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleCancelJob cancels a processing job, or dismisses a finished
// one from the tracker.
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.ctrl.Cancel(id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAnalytics(w http.ResponseWriter, r *http.Request) {
	if p := r.URL.Query().Get("platform"); p != "" {
		writeJSON(w, http.StatusOK, s.metrics.ListByPlatform(constants.Platform(p)))
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.List())
}

type recordPayload struct {
	Platform    constants.Platform `json:"platform"`
	MetricName  string             `json:"metric_name"`
	MetricValue string             `json:"metric_value"`
	Period      *string            `json:"period"`
	Confidence  *int               `json:"confidence"`
}

func (s *Server) handleCreateAnalytics(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	if err := validatePayload(recordSchema, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var p recordPayload
	if err := json.Unmarshal(body, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec := entity.MetricRecord{
		Platform:    p.Platform,
		MetricName:  p.MetricName,
		MetricValue: p.MetricValue,
		Confidence:  p.Confidence,
		SourceType:  constants.SourceScreenshot,
	}
	if p.Period != nil {
		rec.Period = *p.Period
	}
	writeJSON(w, http.StatusCreated, s.metrics.Create(rec))
}

func (s *Server) handleUpdateAnalytics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	if err := validatePayload(patchSchema, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var p recordPayload
	if err := json.Unmarshal(body, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch := store.RecordPatch{
		Period:     p.Period,
		Confidence: p.Confidence,
	}
	if p.Platform != "" {
		patch.Platform = &p.Platform
	}
	if p.MetricName != "" {
		patch.MetricName = &p.MetricName
	}
	if p.MetricValue != "" {
		patch.MetricValue = &p.MetricValue
	}
	rec, err := s.metrics.Update(id, patch)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteAnalytics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.metrics.Delete(id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearAnalytics empties the collection (the "start over"
// action).
func (s *Server) handleClearAnalytics(w http.ResponseWriter, r *http.Request) {
	s.metrics.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetBrand(w http.ResponseWriter, r *http.Request) {
	b, ok := s.brand.Get()
	if !ok {
		writeError(w, http.StatusNotFound, "no brand settings saved")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleSaveBrand(w http.ResponseWriter, r *http.Request) {
	var b entity.BrandSettings
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if b.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	writeJSON(w, http.StatusOK, s.brand.Put(b))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	buf, err := s.export.MediaKitXLSX()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="media-kit.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
