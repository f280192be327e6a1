// Package transport exposes the vision service over HTTP.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/jobs"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/logger"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/storage"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/telemetry"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/worker"
)

const (
	defaultRateLimitPerMinute = 120
	defaultMaxUploadSize      = 25 << 20 // 25 MiB
	httpTimeout               = 60 * time.Second
	httpIdleTimeout           = 120 * time.Second
)

// HTTPTransportConfig configures the HTTP transport.
type HTTPTransportConfig struct {
	AppName         string
	Port            int
	APIKeys         []string
	CORSOrigins     []string
	RateLimit       int
	MaxUploadSize   int64
	MonthlyDocLimit int

	Store   jobs.Store
	Uploads *storage.LocalStore
	Pool    *worker.Pool
	Metrics *telemetry.Metrics
}

// HTTPTransport serves the job API and the dashboard.
type HTTPTransport struct {
	router chi.Router
	server *http.Server
	logger zerolog.Logger

	appName         string
	port            int
	apiKeys         map[string]struct{}
	corsOrigins     []string
	rateLimit       int
	maxUploadSize   int64
	monthlyDocLimit int

	store   jobs.Store
	uploads *storage.LocalStore
	pool    *worker.Pool
	metrics *telemetry.Metrics

	limiterMutex sync.Mutex
	rateLimiter  map[string]*rateLimiter

	startTime time.Time
}

// rateLimiter tracks request counts per client within a window.
type rateLimiter struct {
	count       int
	windowStart time.Time
}

// NewHTTPTransport creates a new HTTP transport.
func NewHTTPTransport(config HTTPTransportConfig) *HTTPTransport {
	if config.Port == 0 {
		config.Port = 8000
	}
	if config.RateLimit == 0 {
		config.RateLimit = defaultRateLimitPerMinute
	}
	if config.MaxUploadSize == 0 {
		config.MaxUploadSize = defaultMaxUploadSize
	}

	keys := make(map[string]struct{}, len(config.APIKeys))
	for _, k := range config.APIKeys {
		keys[k] = struct{}{}
	}

	transport := &HTTPTransport{
		logger:          logger.With("http_transport"),
		appName:         config.AppName,
		port:            config.Port,
		apiKeys:         keys,
		corsOrigins:     config.CORSOrigins,
		rateLimit:       config.RateLimit,
		maxUploadSize:   config.MaxUploadSize,
		monthlyDocLimit: config.MonthlyDocLimit,
		store:           config.Store,
		uploads:         config.Uploads,
		pool:            config.Pool,
		metrics:         config.Metrics,
		rateLimiter:     make(map[string]*rateLimiter),
		startTime:       time.Now(),
	}

	transport.setupRouter()
	return transport
}

// setupRouter initializes HTTP router and middleware
func (t *HTTPTransport) setupRouter() {
	t.router = chi.NewRouter()

	t.setupMiddlewareChain()

	t.router.Get("/", t.handleDashboard)
	t.router.Get("/health", t.handleHealth)

	t.router.Route("/v1", func(r chi.Router) {
		r.Post("/jobs/create", t.handleCreateJob)
		r.Options("/jobs/create", t.handleOptions)
		r.Get("/jobs", t.handleListJobs)
		r.Options("/jobs", t.handleOptions)
		r.Get("/jobs/{jobID}", t.handleGetJob)
		r.Options("/jobs/{jobID}", t.handleOptions)
	})
}

// setupMiddlewareChain configures middleware chain
func (t *HTTPTransport) setupMiddlewareChain() {
	t.router.Use(middleware.RequestID)
	t.router.Use(middleware.RealIP)
	t.router.Use(middleware.Recoverer)

	t.router.Use(t.setupCORS())

	if t.metrics != nil {
		t.router.Use(t.metrics.Middleware)
	}

	t.router.Use(t.rateLimitMiddleware)

	t.router.Use(t.authMiddleware)

	t.router.Use(t.loggingMiddleware)

	t.router.Use(middleware.Timeout(httpTimeout))
}

// setupCORS creates CORS middleware
func (t *HTTPTransport) setupCORS() func(http.Handler) http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins:   t.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	if len(t.corsOrigins) == 0 || (len(t.corsOrigins) == 1 && t.corsOrigins[0] == "*") {
		corsOptions.AllowedOrigins = []string{"*"}
		corsOptions.AllowCredentials = false
	}

	return cors.Handler(corsOptions)
}

// Middleware

func (t *HTTPTransport) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := middleware.GetReqID(r.Context())

		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		t.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapped.Status()).
			Dur("duration", time.Since(start)).
			Int("response_size", wrapped.BytesWritten()).
			Msg("HTTP request")
	})
}

func (t *HTTPTransport) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Dashboard, health and preflight stay open.
		if r.URL.Path == "/" || r.URL.Path == "/health" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		providedKey := r.Header.Get("X-API-Key")
		if providedKey == "" {
			providedKey = r.URL.Query().Get("api_key")
		}

		if _, ok := t.apiKeys[providedKey]; !ok {
			t.sendError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}

		// The API key doubles as the tenant identity.
		ctx := withTenant(r.Context(), providedKey)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (t *HTTPTransport) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			clientIP = strings.Split(forwarded, ",")[0]
		}

		if !t.checkRateLimit(clientIP) {
			t.sendError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (t *HTTPTransport) checkRateLimit(clientIP string) bool {
	t.limiterMutex.Lock()
	defer t.limiterMutex.Unlock()

	now := time.Now()
	limiter, exists := t.rateLimiter[clientIP]
	if !exists || now.Sub(limiter.windowStart) >= time.Minute {
		t.rateLimiter[clientIP] = &rateLimiter{count: 1, windowStart: now}
		return true
	}

	if limiter.count >= t.rateLimit {
		return false
	}
	limiter.count++
	return true
}

// Serve starts the HTTP server and handles requests
func (t *HTTPTransport) Serve(ctx context.Context) error {
	t.server = &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", t.port),
		Handler:      t.router,
		ReadTimeout:  httpTimeout,
		WriteTimeout: httpTimeout,
		IdleTimeout:  httpIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		t.logger.Info().Int("port", t.port).Msg("Starting HTTP transport")
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("failed to start HTTP server on %s: %w", t.server.Addr, err)
		}
	}()

	select {
	case <-ctx.Done():
		return t.Close()
	case err := <-errCh:
		return err
	}
}

// Close gracefully shuts down the HTTP server
func (t *HTTPTransport) Close() error {
	if t.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
	defer cancel()

	t.logger.Info().Msg("Stopping HTTP transport")
	return t.server.Shutdown(ctx)
}

// GetPort returns the HTTP transport port
func (t *HTTPTransport) GetPort() int {
	return t.port
}

// GetRouter returns the HTTP router for testing
func (t *HTTPTransport) GetRouter() http.Handler {
	return t.router
}
