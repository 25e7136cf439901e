package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1})), false)
}

func TestErrorHandler_ErrorToProblem(t *testing.T) {
	h := newTestHandler()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"load", NewLoadError("bad file", nil), http.StatusUnprocessableEntity, TypeLoad},
		{"cleaning", NewCleaningError("fill", nil), http.StatusUnprocessableEntity, TypeCleaning},
		{"validation", NewValidationError("rule", nil), http.StatusUnprocessableEntity, TypeValidation},
		{"report", NewReportError("chart", nil), http.StatusUnprocessableEntity, TypeReport},
		{"input", NewInputError("missing action"), http.StatusBadRequest, TypeInput},
		{"not found", NewNotFoundError("dataset"), http.StatusNotFound, TypeNotFound},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"too large", fmt.Errorf("upload: %w", &http.MaxBytesError{Limit: 10}), http.StatusRequestEntityTooLarge, TypePayloadTooLarge},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/datasets/x", nil)
			problem := h.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/datasets/x", problem.Instance)
		})
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/datasets", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, NewLoadError("header row is empty", nil).WithContext("source", "empty.csv"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeLoad, body["type"])
	assert.Equal(t, "LOAD", body["error_code"])
	assert.Equal(t, "empty.csv", body["source"])
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/x").
		WithExtension("trace_id", "abc")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "abc", body["trace_id"])
	assert.NotContains(t, body, "detail")
	assert.EqualValues(t, 404, body["status"])
}
