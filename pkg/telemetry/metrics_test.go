package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	m, _ := New(func() int { return 3 })

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	count := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/health", "418"))
	assert.Equal(t, float64(1), count)
}

func TestQueueDepthGauge(t *testing.T) {
	m, _ := New(func() int { return 7 })
	assert.Equal(t, float64(7), testutil.ToFloat64(m.QueueDepth))
}

func TestJobsCounter(t *testing.T) {
	m, reg := New(func() int { return 0 })
	m.JobsTotal.WithLabelValues("ocr", "done").Inc()
	m.JobsTotal.WithLabelValues("ocr", "failed").Inc()
	m.JobsTotal.WithLabelValues("ocr", "done").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, f := range families {
		if f.GetName() == "vision_jobs_total" {
			found = true
		}
	}
	assert.True(t, found, "vision_jobs_total must be registered")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.JobsTotal.WithLabelValues("ocr", "done")))
}
