package services

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"excelflow/internal/validation"
	"excelflow/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	outputDir string
	datasets  *DatasetService
	validator *validation.FileValidator
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(outputDir string, datasets *DatasetService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   contracts.Version,
		outputDir: outputDir,
		datasets:  datasets,
		validator: validation.NewFileValidator(logger),
		startTime: time.Now(),
		logger:    logger,
	}
}

// Check reports the health of the output directory and the session store
func (h *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
		Services: make(map[string]ServiceHealth),
	}

	if err := h.validator.ValidateOutputDirectory(h.outputDir); err != nil {
		status.Status = "unhealthy"
		status.Services["output"] = ServiceHealth{Status: "unhealthy", Message: err.Error()}
		h.logger.WarnContext(ctx, "Health check failed", slog.String("error", err.Error()))
	} else {
		status.Services["output"] = ServiceHealth{Status: "healthy"}
	}

	if h.datasets != nil {
		status.Services["datasets"] = ServiceHealth{
			Status:  "healthy",
			Message: pluralize(h.datasets.Count(), "active dataset"),
		}
	}

	return status
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
