package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/jobs"
)

type contextKey string

const tenantKey contextKey = "tenant"

func withTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantKey, tenant)
}

func tenantFrom(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantKey).(string)
	return tenant
}

const (
	defaultListLimit = 50
)

// handleOptions handles preflight OPTIONS requests for CORS support.
func (t *HTTPTransport) handleOptions(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (t *HTTPTransport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	t.sendJSON(w, http.StatusOK, HealthResponse{OK: true, App: t.appName})
}

func (t *HTTPTransport) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(dashboardHTML)
}

// handleCreateJob accepts a multipart upload and queues a processing job.
func (t *HTTPTransport) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r.Context())

	jobType := jobs.Type(r.URL.Query().Get("job_type"))
	if jobType == "" {
		jobType = jobs.TypeOCR
	}
	if !jobs.ValidType(jobType) {
		t.sendError(w, http.StatusBadRequest, "job_type must be ocr|face_verify")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, t.maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		t.sendError(w, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		t.sendError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	// Quota is reserved before the upload is stored; a rejected
	// submission leaves no file behind.
	err = t.store.ReserveQuota(r.Context(), tenant, jobs.Month(time.Now()), t.monthlyDocLimit)
	if errors.Is(err, jobs.ErrQuotaExceeded) {
		t.sendError(w, http.StatusPaymentRequired,
			"Monthly document limit exceeded ("+strconv.Itoa(t.monthlyDocLimit)+")")
		return
	}
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to reserve quota")
		t.sendError(w, http.StatusInternalServerError, "Failed to reserve quota")
		return
	}

	inputURI, err := t.uploads.Save(data, header.Filename)
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to store upload")
		t.sendError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	job := &jobs.Job{
		TenantID: tenant,
		Type:     jobType,
		InputURI: inputURI,
	}
	if err := t.store.Create(r.Context(), job); err != nil {
		t.logger.Error().Err(err).Msg("Failed to create job")
		t.sendError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	if err := t.pool.Enqueue(r.Context(), job.ID); err != nil {
		t.logger.Error().Err(err).Int64("job_id", job.ID).Msg("Failed to enqueue job")
		t.sendError(w, http.StatusServiceUnavailable, "Failed to enqueue job")
		return
	}

	t.sendJSON(w, http.StatusOK, CreateJobResponse{ID: job.ID, Status: jobs.StatusQueued})
}

// handleListJobs returns the tenant's jobs, newest first.
func (t *HTTPTransport) handleListJobs(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r.Context())

	limit := queryInt(r, "limit", defaultListLimit)
	offset := queryInt(r, "offset", 0)

	items, total, err := t.store.List(r.Context(), tenant, limit, offset)
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to list jobs")
		t.sendError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	t.sendJSON(w, http.StatusOK, ListJobsResponse{Total: total, Items: items})
}

// handleGetJob returns the full job document.
func (t *HTTPTransport) handleGetJob(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	if err != nil {
		t.sendError(w, http.StatusNotFound, "Not found")
		return
	}

	job, err := t.store.Get(r.Context(), tenant, id)
	if errors.Is(err, jobs.ErrNotFound) {
		t.sendError(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		t.logger.Error().Err(err).Int64("job_id", id).Msg("Failed to get job")
		t.sendError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	t.sendJSON(w, http.StatusOK, job)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func (t *HTTPTransport) sendJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (t *HTTPTransport) sendError(w http.ResponseWriter, status int, message string) {
	t.sendJSON(w, status, ErrorResponse{Detail: message})
}
