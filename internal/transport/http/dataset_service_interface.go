package http

import (
	"context"
	"io"

	"excelflow/internal/operations"
	"excelflow/internal/services"
)

// DatasetServiceInterface defines the dataset operations used by the handler
type DatasetServiceInterface interface {
	Upload(ctx context.Context, r io.Reader, name string) (*services.DatasetInfo, error)
	Get(ctx context.Context, id string) (*services.DatasetInfo, error)
	List(ctx context.Context) []*services.DatasetInfo
	Apply(ctx context.Context, id string, action operations.Action) (*services.ActionResult, error)
	Preview(ctx context.Context, id string, limit int) (*services.Preview, error)
	Download(ctx context.Context, id string, w io.Writer) error
	Artifact(ctx context.Context, id, kind string) (string, error)
	Delete(ctx context.Context, id string) error
}

// HealthServiceInterface reports service health
type HealthServiceInterface interface {
	Check(ctx context.Context) *services.HealthStatus
}
