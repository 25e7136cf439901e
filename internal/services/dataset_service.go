package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"excelflow/internal/config"
	apperrors "excelflow/internal/errors"
	"excelflow/internal/files"
	"excelflow/internal/operations"
	"excelflow/internal/validation"
	"excelflow/pkg/contracts/domain"
)

// DefaultPreviewLimit is the number of rows returned by Preview when no limit is given
const DefaultPreviewLimit = 20

// Report artifact names accepted by Artifact
const (
	ArtifactSummary = "summary"
	ArtifactChart   = "chart"
)

// DatasetInfo describes a session for API responses
type DatasetInfo struct {
	ID        string                   `json:"id"`
	FileName  string                   `json:"file_name"`
	Rows      int                      `json:"rows"`
	Columns   []domain.Column          `json:"columns"`
	Actions   []operations.Action      `json:"actions"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
	Preview   []map[string]interface{} `json:"preview,omitempty"`
}

// ActionResult is returned after an action was applied
type ActionResult struct {
	Dataset   *DatasetInfo              `json:"dataset"`
	Action    operations.Action         `json:"action"`
	RunID     string                    `json:"run_id"`
	Stages    []*operations.StageResult `json:"stages"`
	Summary   *domain.Summary           `json:"summary,omitempty"`
	Histogram *domain.Histogram         `json:"histogram,omitempty"`
}

// Preview is a window of a session Table
type Preview struct {
	Columns []domain.Column          `json:"columns"`
	Total   int                      `json:"total"`
	Rows    []map[string]interface{} `json:"rows"`
}

// DatasetService runs the interactive workflow on uploaded datasets
type DatasetService struct {
	runner    *operations.Runner
	store     *MemorySessionStore
	validator *validation.FileValidator
	files     *files.Manager
	paths     config.PathsConfig
	logger    *slog.Logger
}

// NewDatasetService creates a dataset service
func NewDatasetService(runner *operations.Runner, paths config.PathsConfig, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		runner:    runner,
		store:     NewMemorySessionStore(),
		validator: validation.NewFileValidator(logger),
		files:     files.NewManager(paths.OutputDir, logger),
		paths:     paths,
		logger:    logger,
	}
}

// Upload loads r as a new dataset session. name selects the format.
func (s *DatasetService) Upload(ctx context.Context, r io.Reader, name string) (*DatasetInfo, error) {
	if err := s.validator.ValidateFileName(name); err != nil {
		return nil, err
	}

	table, err := s.runner.Load(ctx, r, name)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		ID:        uuid.New().String(),
		FileName:  filepath.Base(name),
		Table:     table,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(session); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Dataset uploaded",
		slog.String("dataset_id", session.ID),
		slog.String("file_name", session.FileName),
		slog.Int("rows", table.Len()))

	info := s.info(session)
	info.Preview = table.Records(DefaultPreviewLimit)
	return info, nil
}

// Get returns the description of a session
func (s *DatasetService) Get(ctx context.Context, id string) (*DatasetInfo, error) {
	session, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return s.info(session), nil
}

// List describes every live session
func (s *DatasetService) List(ctx context.Context) []*DatasetInfo {
	sessions := s.store.List()
	out := make([]*DatasetInfo, 0, len(sessions))
	for _, session := range sessions {
		session.mu.Lock()
		out = append(out, s.info(session))
		session.mu.Unlock()
	}
	return out
}

// Apply runs action on the session Table. The session Table is replaced
// only when the action succeeds.
func (s *DatasetService) Apply(ctx context.Context, id string, action operations.Action) (*ActionResult, error) {
	if action == operations.ActionAll {
		return nil, apperrors.NewInputError("action all is only available from the command line")
	}

	session, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if action == operations.ActionReport {
		if _, err := s.files.EnsureSessionDir(id); err != nil {
			return nil, apperrors.NewReportError("failed to prepare report directory", err)
		}
	}

	result, err := s.runner.Apply(ctx, action, session.Table, s.sessionPaths(id))
	if err != nil {
		s.logger.WarnContext(ctx, "Action failed, dataset unchanged",
			slog.String("dataset_id", id),
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
		return nil, err
	}

	session.Table = result.Table
	session.Actions = append(session.Actions, action)
	session.UpdatedAt = time.Now()
	if action == operations.ActionReport {
		session.Report = result
	}

	s.logger.InfoContext(ctx, "Action applied",
		slog.String("dataset_id", id),
		slog.String("action", string(action)),
		slog.Int("rows", session.Table.Len()))

	return &ActionResult{
		Dataset:   s.info(session),
		Action:    action,
		RunID:     result.RunID,
		Stages:    result.Stages,
		Summary:   result.Summary,
		Histogram: result.Histogram,
	}, nil
}

// Preview returns the first limit rows of the session Table. limit <= 0
// uses DefaultPreviewLimit.
func (s *DatasetService) Preview(ctx context.Context, id string, limit int) (*Preview, error) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	session, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	return &Preview{
		Columns: session.Table.Columns,
		Total:   session.Table.Len(),
		Rows:    session.Table.Records(limit),
	}, nil
}

// Download writes the session Table to w as an xlsx workbook
func (s *DatasetService) Download(ctx context.Context, id string, w io.Writer) error {
	session, err := s.store.Get(id)
	if err != nil {
		return err
	}

	session.mu.Lock()
	table := session.Table
	session.mu.Unlock()

	return s.runner.WriteTable(ctx, w, table)
}

// Artifact returns the path of a report file written by the last report action
func (s *DatasetService) Artifact(ctx context.Context, id, kind string) (string, error) {
	session, err := s.store.Get(id)
	if err != nil {
		return "", err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.Report == nil {
		return "", apperrors.NewNotFoundError("report for dataset " + id)
	}

	var path string
	switch kind {
	case ArtifactSummary:
		path = session.Report.Artifacts.SummaryFile
	case ArtifactChart:
		path = session.Report.Artifacts.ChartFile
	default:
		return "", apperrors.NewInputError(fmt.Sprintf("unknown report artifact %q", kind))
	}
	if path == "" || !config.FileExists(path) {
		return "", apperrors.NewNotFoundError(kind + " for dataset " + id)
	}
	return path, nil
}

// Delete removes a session and its report directory
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	if err := s.files.RemoveSessionDir(id); err != nil {
		s.logger.WarnContext(ctx, "Failed to remove dataset output",
			slog.String("dataset_id", id),
			slog.String("error", err.Error()))
	}
	s.logger.InfoContext(ctx, "Dataset deleted", slog.String("dataset_id", id))
	return nil
}

// Count returns the number of live sessions
func (s *DatasetService) Count() int {
	return s.store.Count()
}

// SweepStaleOutputs removes report directories that belong to no live
// session, such as those left by a previous process
func (s *DatasetService) SweepStaleOutputs(ctx context.Context) (int, error) {
	return s.files.SweepSessionDirs(ctx, func(id string) bool {
		_, err := s.store.Get(id)
		return err == nil
	})
}

func (s *DatasetService) sessionPaths(id string) *config.Paths {
	return s.paths.ResolveIn(s.files.SessionDir(id))
}

func (s *DatasetService) info(session *Session) *DatasetInfo {
	actions := make([]operations.Action, len(session.Actions))
	copy(actions, session.Actions)
	return &DatasetInfo{
		ID:        session.ID,
		FileName:  session.FileName,
		Rows:      session.Table.Len(),
		Columns:   session.Table.Columns,
		Actions:   actions,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}
