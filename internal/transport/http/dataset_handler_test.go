package http

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

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "excelflow/internal/errors"
	"excelflow/internal/operations"
	"excelflow/internal/services"
	"excelflow/pkg/contracts/domain"
)

// MockDatasetService is a mock implementation of DatasetServiceInterface
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Upload(ctx context.Context, r io.Reader, name string) (*services.DatasetInfo, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(string(data), name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DatasetInfo), args.Error(1)
}

func (m *MockDatasetService) Get(ctx context.Context, id string) (*services.DatasetInfo, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DatasetInfo), args.Error(1)
}

func (m *MockDatasetService) List(ctx context.Context) []*services.DatasetInfo {
	args := m.Called()
	return args.Get(0).([]*services.DatasetInfo)
}

func (m *MockDatasetService) Apply(ctx context.Context, id string, action operations.Action) (*services.ActionResult, error) {
	args := m.Called(id, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ActionResult), args.Error(1)
}

func (m *MockDatasetService) Preview(ctx context.Context, id string, limit int) (*services.Preview, error) {
	args := m.Called(id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Preview), args.Error(1)
}

func (m *MockDatasetService) Download(ctx context.Context, id string, w io.Writer) error {
	args := m.Called(id)
	if payload, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, payload)
	}
	return args.Error(1)
}

func (m *MockDatasetService) Artifact(ctx context.Context, id, kind string) (string, error) {
	args := m.Called(id, kind)
	return args.String(0), args.Error(1)
}

func (m *MockDatasetService) Delete(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func newTestRouter(svc DatasetServiceInterface) http.Handler {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	h := NewDatasetHandler(svc, logger, apperrors.NewErrorHandler(logger, false))
	r := chi.NewRouter()
	r.Mount("/api/datasets", h.Routes())
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func multipartBody(t *testing.T, field, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestDatasetHandler_Upload(t *testing.T) {
	tests := []struct {
		name           string
		field          string
		setupMock      func(*MockDatasetService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "successful upload",
			field: "file",
			setupMock: func(m *MockDatasetService) {
				m.On("Upload", "Name,Amount\nAlice,1\n", "data.csv").Return(&services.DatasetInfo{
					ID:       "ds-1",
					FileName: "data.csv",
					Rows:     1,
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"id":"ds-1"`,
		},
		{
			name:           "missing file field",
			field:          "other",
			setupMock:      func(m *MockDatasetService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   apperrors.TypeInput,
		},
		{
			name:  "load failure",
			field: "file",
			setupMock: func(m *MockDatasetService) {
				m.On("Upload", mock.Anything, "data.csv").Return(nil, apperrors.NewLoadError("header row is empty", nil))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   apperrors.TypeLoad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDatasetService)
			tt.setupMock(svc)

			body, contentType := multipartBody(t, tt.field, "data.csv", "Name,Amount\nAlice,1\n")
			req := httptest.NewRequest(http.MethodPost, "/api/datasets", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			newTestRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestDatasetHandler_UploadNotMultipart(t *testing.T) {
	svc := new(MockDatasetService)
	req := httptest.NewRequest(http.MethodPost, "/api/datasets", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestDatasetHandler_Apply(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockDatasetService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "clean",
			body: `{"action":"clean"}`,
			setupMock: func(m *MockDatasetService) {
				m.On("Apply", "ds-1", operations.ActionClean).Return(&services.ActionResult{
					Dataset: &services.DatasetInfo{ID: "ds-1", Rows: 3},
					Action:  operations.ActionClean,
					RunID:   "run-1",
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"run_id":"run-1"`,
		},
		{
			name: "action is case insensitive",
			body: `{"action":" Report "}`,
			setupMock: func(m *MockDatasetService) {
				m.On("Apply", "ds-1", operations.ActionReport).Return(&services.ActionResult{
					Dataset: &services.DatasetInfo{ID: "ds-1"},
					Action:  operations.ActionReport,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"action":"report"`,
		},
		{
			name:           "unknown action",
			body:           `{"action":"explode"}`,
			setupMock:      func(m *MockDatasetService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "explode",
		},
		{
			name:           "all is not accepted over http",
			body:           `{"action":"all"}`,
			setupMock:      func(m *MockDatasetService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   apperrors.TypeInput,
		},
		{
			name:           "malformed json",
			body:           `{"action":`,
			setupMock:      func(m *MockDatasetService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   apperrors.TypeInput,
		},
		{
			name: "unknown dataset",
			body: `{"action":"validate"}`,
			setupMock: func(m *MockDatasetService) {
				m.On("Apply", "ds-1", operations.ActionValidate).Return(nil, apperrors.NewNotFoundError("dataset ds-1"))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   apperrors.TypeNotFound,
		},
		{
			name: "report failure",
			body: `{"action":"report"}`,
			setupMock: func(m *MockDatasetService) {
				m.On("Apply", "ds-1", operations.ActionReport).Return(nil, apperrors.NewReportError("failed to save chart", nil))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   apperrors.TypeReport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDatasetService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/datasets/ds-1/actions", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			newTestRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestDatasetHandler_Preview(t *testing.T) {
	preview := &services.Preview{
		Columns: []domain.Column{{Name: "Name", Type: domain.ColumnText}},
		Total:   1,
		Rows:    []map[string]interface{}{{"Name": "Alice"}},
	}

	t.Run("default limit", func(t *testing.T) {
		svc := new(MockDatasetService)
		svc.On("Preview", "ds-1", 0).Return(preview, nil)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/ds-1/preview", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(1), body["total"])
		svc.AssertExpectations(t)
	})

	t.Run("limit is capped", func(t *testing.T) {
		svc := new(MockDatasetService)
		svc.On("Preview", "ds-1", MaxPreviewLimit).Return(preview, nil)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/ds-1/preview?limit=5000", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		svc := new(MockDatasetService)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/ds-1/preview?limit=abc", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Preview", mock.Anything, mock.Anything)
	})
}

func TestDatasetHandler_Download(t *testing.T) {
	t.Run("serves workbook", func(t *testing.T) {
		svc := new(MockDatasetService)
		svc.On("Download", "ds-1").Return("xlsx-bytes", nil)

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/ds-1/download", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), DownloadFileName)
		assert.Equal(t, "xlsx-bytes", rec.Body.String())
	})

	t.Run("failure renders problem without partial body", func(t *testing.T) {
		svc := new(MockDatasetService)
		svc.On("Download", "ds-1").Return("partial", apperrors.NewReportError("failed to write workbook", nil))

		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/ds-1/download", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.NotContains(t, rec.Body.String(), "partial")
	})
}

func TestDatasetHandler_Artifact(t *testing.T) {
	dir := t.TempDir()
	chart := filepath.Join(dir, "histogram.png")
	require.NoError(t, os.WriteFile(chart, []byte("png"), 0644))

	svc := new(MockDatasetService)
	svc.On("Artifact", "ds-1", "chart").Return(chart, nil)
	svc.On("Artifact", "ds-1", "bogus").Return("", apperrors.NewInputError(`unknown report artifact "bogus"`))

	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/ds-1/report/chart", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "histogram.png")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/ds-1/report/bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetHandler_GetListDelete(t *testing.T) {
	svc := new(MockDatasetService)
	svc.On("List").Return([]*services.DatasetInfo{{ID: "ds-1"}, {ID: "ds-2"}})
	svc.On("Get", "ds-1").Return(&services.DatasetInfo{ID: "ds-1", FileName: "a.csv"}, nil)
	svc.On("Get", "missing").Return(nil, apperrors.NewNotFoundError("dataset missing"))
	svc.On("Delete", "ds-1").Return(nil)

	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decodeBody(t, rec)["count"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/ds-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a.csv", decodeBody(t, rec)["file_name"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/datasets/ds-1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	svc.AssertExpectations(t)
}
