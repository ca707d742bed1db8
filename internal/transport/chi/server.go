package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/xover/internal/domain"
	"github.com/kailas-cloud/xover/internal/domain/job"
	"github.com/kailas-cloud/xover/internal/domain/record"
	"github.com/kailas-cloud/xover/internal/logger"
	batchuc "github.com/kailas-cloud/xover/internal/usecase/batch"
	healthuc "github.com/kailas-cloud/xover/internal/usecase/health"
)

// maxBodyBytes bounds request bodies; a full batch of jobs is well below it.
const maxBodyBytes = 1 << 20

// BatchRunner runs day jobs.
type BatchRunner interface {
	Run(ctx context.Context, reqs []job.Request) batchuc.Report
	RunRange(ctx context.Context, rr batchuc.RangeRequest) (batchuc.Report, error)
}

// StageReader reads stage bookkeeping.
type StageReader interface {
	Get(ctx context.Context, name string) (map[string]job.Stage, error)
	Names(ctx context.Context) ([]string, error)
}

// CrossoverReader reads a day's crossover file.
type CrossoverReader interface {
	Read(ctx context.Context, key record.FileKey) ([]record.Record, record.Metadata, error)
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the job API.
type Server struct {
	batch         BatchRunner
	stages        StageReader
	crossovers    CrossoverReader
	health        HealthChecker
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. stages may be nil when no database is configured.
func NewServer(batch BatchRunner, stages StageReader, crossovers CrossoverReader, health HealthChecker) *Server {
	return &Server{
		batch:      batch,
		stages:     stages,
		crossovers: crossovers,
		health:     health,
		errorHandlers: []errorHandler{
			sentinelHandler(domain.ErrInvalidJob, http.StatusBadRequest, CodeValidationFailed),
			sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
			sentinelHandler(domain.ErrNoInputData, http.StatusNotFound, CodeNoInputData),
		},
	}
}

// RunJobs handles POST /v1/jobs. Per-item failures are reported in the body, never as an HTTP error.
func (s *Server) RunJobs(w http.ResponseWriter, r *http.Request) {
	var req JobsRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Jobs) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "jobs must not be empty")
		return
	}

	report := s.batch.Run(r.Context(), req.Jobs)
	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// RunRange handles POST /v1/runs.
func (s *Server) RunRange(w http.ResponseWriter, r *http.Request) {
	var req RangeRunRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Source == "" || req.DFVersion == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "source and df_version are required")
		return
	}
	first, err := time.Parse(time.DateOnly, req.FirstDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "first_day must be YYYY-MM-DD")
		return
	}
	last, err := time.Parse(time.DateOnly, req.LastDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "last_day must be YYYY-MM-DD")
		return
	}

	report, err := s.batch.RunRange(r.Context(), batchuc.RangeRequest{
		Source1:    req.Source,
		Source2:    req.Source2,
		Version:    req.DFVersion,
		Processing: req.Processing,
		First:      first,
		Last:       last,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// ListStages handles GET /v1/stages.
func (s *Server) ListStages(w http.ResponseWriter, r *http.Request) {
	if s.stages == nil {
		writeError(w, http.StatusNotImplemented, CodeNotImplemented, "stage bookkeeping is disabled")
		return
	}
	names, err := s.stages.Names(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StageNamesResponse{Names: names})
}

// GetStages handles GET /v1/stages/{version}.
func (s *Server) GetStages(w http.ResponseWriter, r *http.Request) {
	if s.stages == nil {
		writeError(w, http.StatusNotImplemented, CodeNotImplemented, "stage bookkeeping is disabled")
		return
	}
	name := job.StageName(chi.URLParam(r, "version"))
	stages, err := s.stages.Get(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	out := make(map[string]string, len(stages))
	for k, v := range stages {
		out[k] = string(v)
	}
	writeJSON(w, http.StatusOK, StagesResponse{Name: name, Stages: out})
}

// GetCrossovers handles GET /v1/crossovers/{version}/{date}?source=A[&source2=B].
func (s *Server) GetCrossovers(w http.ResponseWriter, r *http.Request) {
	day, err := time.Parse(time.DateOnly, chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "date must be YYYY-MM-DD")
		return
	}
	src := r.URL.Query().Get("source")
	if src == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "source is required")
		return
	}
	src2 := r.URL.Query().Get("source2")
	if src2 == "" {
		src2 = src
	}

	records, meta, err := s.crossovers.Read(r.Context(), record.FileKey{
		Version: chi.URLParam(r, "version"),
		Sat1:    src,
		Sat2:    src2,
		Day:     day,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordsToResponse(records, meta))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
