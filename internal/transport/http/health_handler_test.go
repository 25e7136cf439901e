package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"excelflow/internal/services"
)

type stubHealth struct {
	status string
}

func (s stubHealth) Check(ctx context.Context) *services.HealthStatus {
	return &services.HealthStatus{Status: s.status, Version: "test"}
}

func TestHealthHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		status         string
		expectedStatus int
	}{
		{"healthy", "healthy", http.StatusOK},
		{"unhealthy", "unhealthy", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(stubHealth{status: tt.status}, nil)
			rec := httptest.NewRecorder()
			h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), `"status":"`+tt.status+`"`)
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	disabled := NewMetricsHandler(nil)
	assert.False(t, disabled.Enabled())
	rec := httptest.NewRecorder()
	disabled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	enabled := NewMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# HELP up"))
	}))
	rec = httptest.NewRecorder()
	enabled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "# HELP up", rec.Body.String())
}

func TestServeIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	ServeIndex("1.2.3", nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	body := rec.Body.String()
	assert.Contains(t, body, "version 1.2.3")
	assert.Contains(t, body, `data-action="report"`)
}
