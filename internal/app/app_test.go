package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excelflow/internal/config"
)

// createTestLogger creates a logger that discards output for testing
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Server.Port = 0
	cfg.Server.RateLimit.Enabled = false
	cfg.Telemetry.EnableMetrics = true
	cfg.Telemetry.TraceExporter = "none"

	app, err := New(cfg, createTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = app.OTelProviders.Shutdown(context.Background())
	})
	return app
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func uploadCSV(t *testing.T, h http.Handler, content string) map[string]interface{} {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "sales.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := do(t, h, http.MethodPost, "/api/datasets", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func applyAction(t *testing.T, h http.Handler, id, action string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, http.MethodPost, "/api/datasets/"+id+"/actions",
		strings.NewReader(`{"action":"`+action+`"}`), "application/json")
}

const sampleCSV = "Name,Amount,City\nAlice,100,Paris\nBob,-5,Rome\nAlice,100,Paris\n,40,Oslo\nCarol,,Lima\n"

func TestNewApplication(t *testing.T) {
	app := newTestApplication(t)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Runner)
	assert.NotNil(t, app.Datasets)
	assert.NotNil(t, app.Health)
	assert.Equal(t, ":0", app.Server.Addr)
}

func TestNewApplication_BadTelemetry(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Telemetry.TraceExporter = "jaeger"

	_, err := New(cfg, createTestLogger())
	assert.Error(t, err)
}

func TestApplication_DatasetWorkflow(t *testing.T) {
	app := newTestApplication(t)
	h := app.Router

	uploaded := uploadCSV(t, h, sampleCSV)
	id, _ := uploaded["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, float64(5), uploaded["rows"])

	rec := applyAction(t, h, id, "clean")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = applyAction(t, h, id, "validate")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/datasets/"+id+"/preview?limit=10", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var preview struct {
		Total int                      `json:"total"`
		Rows  []map[string]interface{} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, 3, preview.Total)
	for _, row := range preview.Rows {
		assert.NotNil(t, row["Name"])
		amount, ok := row["Amount"].(float64)
		require.True(t, ok)
		assert.GreaterOrEqual(t, amount, 0.0)
	}

	rec = applyAction(t, h, id, "report")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"summary"`)

	rec = do(t, h, http.MethodGet, "/api/datasets/"+id+"/report/chart", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = do(t, h, http.MethodGet, "/api/datasets/"+id+"/report/summary", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/datasets/"+id+"/download", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "processed_data.xlsx")
	assert.NotZero(t, rec.Body.Len())

	rec = do(t, h, http.MethodDelete, "/api/datasets/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/datasets/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_RequestIDAndProblems(t *testing.T) {
	app := newTestApplication(t)

	rec := do(t, app.Router, http.MethodGet, "/api/datasets/unknown/preview", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "json")

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, rec.Header().Get("X-Request-ID"), problem["trace_id"])

	rec = do(t, app.Router, http.MethodGet, "/no/such/page", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/not-found")
}

func TestApplication_UploadTooLarge(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Server.MaxUploadBytes = 64
	cfg.Telemetry.EnableMetrics = false

	app, err := New(cfg, createTestLogger())
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "big.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(strings.Repeat("a,b\n", 100)))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := do(t, app.Router, http.MethodPost, "/api/datasets", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestApplication_StaticRoutes(t *testing.T) {
	app := newTestApplication(t)

	rec := do(t, app.Router, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "excelflow")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = do(t, app.Router, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = do(t, app.Router, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestApplication_StartStop(t *testing.T) {
	app := newTestApplication(t)

	require.NoError(t, app.Start(context.Background()))
	addr := app.Addr()
	require.NotEmpty(t, addr)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(context.Background()))

	_, err = client.Get("http://" + addr + "/api/health")
	assert.Error(t, err)
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	app := newTestApplication(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return app.Addr() != "" }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewApplication_SweepsStaleOutputs(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Telemetry.EnableMetrics = false

	stale := filepath.Join(cfg.Paths.OutputDir, uuid.New().String())
	require.NoError(t, os.MkdirAll(stale, 0755))

	_, err := New(cfg, createTestLogger())
	require.NoError(t, err)
	assert.NoDirExists(t, stale)
}
