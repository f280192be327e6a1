// Package telemetry exposes Prometheus metrics for the vision service.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/logger"
)

// Metrics bundles the service collectors.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	JobsTotal       *prometheus.CounterVec
	QueueDepth      prometheus.GaugeFunc
}

// New registers the collectors on a fresh registry and returns both.
func New(queueLen func() int) (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vision",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vision",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vision",
			Name:      "jobs_total",
			Help:      "Jobs finished by type and outcome.",
		}, []string{"job_type", "outcome"}),
		QueueDepth: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "vision",
			Name:      "job_queue_depth",
			Help:      "Jobs waiting in the worker queue.",
		}, func() float64 { return float64(queueLen()) }),
	}
	return m, reg
}

// RecordJob counts a finished job by type and outcome.
func (m *Metrics) RecordJob(jobType, outcome string) {
	m.JobsTotal.WithLabelValues(jobType, outcome).Inc()
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.RequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Serve exposes /metrics on its own port until ctx is cancelled.
func Serve(ctx context.Context, reg *prometheus.Registry, port int) error {
	log := logger.With("telemetry")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", port).Msg("Starting metrics endpoint")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
