package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apperrors "excelflow/internal/errors"
	"excelflow/internal/operations"
	api "excelflow/pkg/contracts/api/v1"
)

// DownloadFileName is the attachment name of the processed workbook
const DownloadFileName = "processed_data.xlsx"

// MaxPreviewLimit caps the preview page size
const MaxPreviewLimit = 1000

const (
	uploadField     = "file"
	multipartMemory = 32 << 20
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DatasetHandler handles dataset HTTP requests with RFC 7807 errors
type DatasetHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *DatasetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Upload)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Post("/actions", h.Apply)
		r.Get("/preview", h.Preview)
		r.Get("/download", h.Download)
		r.Get("/report/{artifact}", h.Artifact)
	})

	return r
}

// List handles GET /api/datasets
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	datasets := h.service.List(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"count": len(datasets),
		"data":  datasets,
	})
}

// Upload handles POST /api/datasets
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apperrors.NewInputError("request must be multipart/form-data with a \"file\" field"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewInputError("no file uploaded in field \"file\""))
		return
	}
	defer file.Close()

	h.logger.InfoContext(ctx, "upload received",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("file_name", header.Filename),
		slog.Int64("size", header.Size),
	)

	info, err := h.service.Upload(ctx, file, header.Filename)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}

// Get handles GET /api/datasets/{id}
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// Delete handles DELETE /api/datasets/{id}
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Apply handles POST /api/datasets/{id}/actions
func (h *DatasetHandler) Apply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	req := &api.ActionRequest{}
	if err := render.DecodeJSON(r.Body, req); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewInputError("request body must be JSON like {\"action\":\"clean\"}"))
		return
	}
	if err := req.Bind(r); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewInputError(err.Error()))
		return
	}

	action, err := operations.ParseAction(req.Action)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "applying action",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("dataset_id", id),
		slog.String("action", string(action)),
	)

	result, err := h.service.Apply(ctx, id, action)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Preview handles GET /api/datasets/{id}/preview
func (h *DatasetHandler) Preview(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.errorHandler.HandleError(w, r, apperrors.NewInputError("limit must be a positive integer"))
			return
		}
		if n > MaxPreviewLimit {
			n = MaxPreviewLimit
		}
		limit = n
	}

	preview, err := h.service.Preview(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, preview)
}

// Download handles GET /api/datasets/{id}/download
func (h *DatasetHandler) Download(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.Download(r.Context(), chi.URLParam(r, "id"), &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadFileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "download interrupted", slog.String("error", err.Error()))
	}
}

// Artifact handles GET /api/datasets/{id}/report/{artifact}
func (h *DatasetHandler) Artifact(w http.ResponseWriter, r *http.Request) {
	path, err := h.service.Artifact(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "artifact"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}
