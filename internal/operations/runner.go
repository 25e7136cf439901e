package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"excelflow/internal/config"
	"excelflow/internal/dataprocessing"
	apperrors "excelflow/internal/errors"
	"excelflow/internal/exporter"
	"excelflow/internal/infrastructure"
	"excelflow/pkg/contracts/domain"
)

// Runner executes pipeline stages
type Runner struct {
	settings config.PipelineConfig

	loader     *dataprocessing.Loader
	cleaner    *dataprocessing.Cleaner
	validator  *dataprocessing.Validator
	summarizer *dataprocessing.Summarizer

	excel *exporter.ExcelWriter
	chart *exporter.ChartRenderer
	csv   *exporter.CSVWriter

	tracer *StageTracer
	logger *slog.Logger
}

// NewRunner builds the stages from the pipeline settings. A nil providers
// value disables tracing and metrics; a nil logger uses slog.Default().
func NewRunner(settings config.PipelineConfig, providers *infrastructure.OTelProviders, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if providers == nil {
		providers = infrastructure.NoopOTelProviders(logger)
	}
	if settings.HistogramBins <= 0 {
		settings.HistogramBins = dataprocessing.DefaultHistogramBins
	}

	validator, err := dataprocessing.NewValidator(settings.AmountColumn, settings.Rule, logger)
	if err != nil {
		return nil, err
	}
	tracer, err := NewStageTracer(providers)
	if err != nil {
		return nil, err
	}

	return &Runner{
		settings:   settings,
		loader:     dataprocessing.NewLoader(logger),
		cleaner:    dataprocessing.NewCleaner(logger, settings.UnknownText),
		validator:  validator,
		summarizer: dataprocessing.NewSummarizer(logger),
		excel:      exporter.NewExcelWriter(logger),
		chart:      exporter.NewChartRenderer(logger),
		csv:        exporter.NewCSVWriter(logger),
		tracer:     tracer,
		logger:     logger,
	}, nil
}

// Run loads paths.InputFile and executes action on it. ActionAll runs the
// whole pipeline; the other actions are applied to the freshly loaded Table
// and, except for report, the result is saved as the cleaned dataset.
func (r *Runner) Run(ctx context.Context, action Action, paths *config.Paths) (*Result, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	result := &Result{RunID: infrastructure.GetRunID(ctx), Action: action}

	action, err := ParseAction(string(action))
	if err != nil {
		return result, err
	}
	result.Action = action

	r.logger.InfoContext(ctx, "Starting automation",
		slog.String("action", string(action)),
		slog.String("input_file", paths.InputFile),
		slog.String("output_dir", paths.OutputDir))

	table, err := r.load(ctx, result, paths.InputFile)
	if err != nil {
		return result, err
	}

	switch action {
	case ActionAll:
		if table, err = r.clean(ctx, result, table); err != nil {
			return result, err
		}
		if table, err = r.validate(ctx, result, table); err != nil {
			return result, err
		}
		if err = r.save(ctx, result, table, paths); err != nil {
			return result, err
		}
		if err = r.report(ctx, result, table, paths); err != nil {
			return result, err
		}
	case ActionClean, ActionTransform:
		if table, err = r.clean(ctx, result, table); err != nil {
			return result, err
		}
		if err = r.save(ctx, result, table, paths); err != nil {
			return result, err
		}
	case ActionValidate:
		if table, err = r.validate(ctx, result, table); err != nil {
			return result, err
		}
		if err = r.save(ctx, result, table, paths); err != nil {
			return result, err
		}
	case ActionReport:
		if err = r.report(ctx, result, table, paths); err != nil {
			return result, err
		}
	}

	result.Table = table
	r.logger.InfoContext(ctx, "Automation complete",
		slog.String("action", string(action)),
		slog.Int("rows", table.Len()),
		slog.Any("artifacts", result.Artifacts.List()))

	return result, nil
}

// Load reads a file handle into a Table inside the load stage
func (r *Runner) Load(ctx context.Context, src io.Reader, name string) (*domain.Table, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	result := &Result{RunID: infrastructure.GetRunID(ctx)}

	var table *domain.Table
	err := r.runStage(ctx, result, StageLoad, 0, func(ctx context.Context, res *StageResult) error {
		t, err := r.loader.LoadReader(ctx, src, name)
		if err != nil {
			return err
		}
		table = t
		res.RowsOut = t.Len()
		r.tracer.RecordRowsLoaded(ctx, filepath.Base(name), t.Len())
		return nil
	})
	return table, err
}

// Apply executes one interactive action on t. t itself is never modified;
// on failure the caller keeps its previous Table. For ActionReport the
// artifacts are written below paths and Result.Table is t.
func (r *Runner) Apply(ctx context.Context, action Action, t *domain.Table, paths *config.Paths) (*Result, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	result := &Result{RunID: infrastructure.GetRunID(ctx), Action: action}

	var err error
	table := t
	switch action {
	case ActionClean, ActionTransform:
		table, err = r.clean(ctx, result, t)
	case ActionValidate:
		table, err = r.validate(ctx, result, t)
	case ActionReport:
		err = r.report(ctx, result, t, paths)
	default:
		err = apperrors.NewInputError(fmt.Sprintf("action %q cannot be applied to a loaded dataset", action))
	}
	if err != nil {
		return result, err
	}

	result.Table = table
	return result, nil
}

// WriteTable streams t as an xlsx workbook
func (r *Runner) WriteTable(ctx context.Context, w io.Writer, t *domain.Table) error {
	return r.excel.WriteTableTo(ctx, w, t)
}

func (r *Runner) load(ctx context.Context, result *Result, path string) (*domain.Table, error) {
	var table *domain.Table
	err := r.runStage(ctx, result, StageLoad, 0, func(ctx context.Context, res *StageResult) error {
		t, err := r.loader.Load(ctx, path)
		if err != nil {
			return err
		}
		table = t
		res.RowsOut = t.Len()
		r.tracer.RecordRowsLoaded(ctx, filepath.Base(path), t.Len())
		return nil
	})
	return table, err
}

func (r *Runner) clean(ctx context.Context, result *Result, in *domain.Table) (*domain.Table, error) {
	var table *domain.Table
	err := r.runStage(ctx, result, StageClean, in.Len(), func(ctx context.Context, res *StageResult) error {
		t, err := r.cleaner.Clean(ctx, in)
		if err != nil {
			return err
		}
		table = t
		res.RowsOut = t.Len()
		r.tracer.RecordRowsRemoved(ctx, StageClean, in.Len()-t.Len())
		return nil
	})
	return table, err
}

func (r *Runner) validate(ctx context.Context, result *Result, in *domain.Table) (*domain.Table, error) {
	var table *domain.Table
	err := r.runStage(ctx, result, StageValidate, in.Len(), func(ctx context.Context, res *StageResult) error {
		t, err := r.validator.Validate(ctx, in)
		if err != nil {
			return err
		}
		table = t
		res.RowsOut = t.Len()
		r.tracer.RecordRowsRemoved(ctx, StageValidate, in.Len()-t.Len())
		return nil
	})
	return table, err
}

func (r *Runner) save(ctx context.Context, result *Result, t *domain.Table, paths *config.Paths) error {
	return r.runStage(ctx, result, StageSave, t.Len(), func(ctx context.Context, res *StageResult) error {
		if err := r.excel.WriteTable(ctx, paths.CleanedFile, t); err != nil {
			return err
		}
		result.Artifacts.CleanedFile = paths.CleanedFile

		if r.settings.WriteCSV {
			if err := r.csv.WriteTable(ctx, paths.CleanedCSV, t); err != nil {
				return err
			}
			result.Artifacts.CleanedCSV = paths.CleanedCSV
		}
		res.RowsOut = t.Len()
		return nil
	})
}

func (r *Runner) report(ctx context.Context, result *Result, t *domain.Table, paths *config.Paths) error {
	return r.runStage(ctx, result, StageReport, t.Len(), func(ctx context.Context, res *StageResult) error {
		summary, err := r.summarizer.Describe(ctx, t)
		if err != nil {
			return err
		}
		hist, err := r.summarizer.Histogram(ctx, t, r.settings.AmountColumn, r.settings.HistogramBins)
		if err != nil {
			return err
		}

		if err := r.excel.WriteSummary(ctx, paths.SummaryFile, summary, hist); err != nil {
			return err
		}
		result.Artifacts.SummaryFile = paths.SummaryFile

		if hist != nil {
			if err := r.chart.RenderHistogram(ctx, paths.ChartFile, hist); err != nil {
				return err
			}
			result.Artifacts.ChartFile = paths.ChartFile
		}

		result.Summary = summary
		result.Histogram = hist
		res.RowsOut = t.Len()
		return nil
	})
}

// runStage executes fn inside a span, converts panics and untyped errors
// into the stage's error type and appends the StageResult to result
func (r *Runner) runStage(ctx context.Context, result *Result, stageID string, rowsIn int, fn func(context.Context, *StageResult) error) (err error) {
	res := &StageResult{ID: stageID, RowsIn: rowsIn, StartTime: time.Now()}
	result.Stages = append(result.Stages, res)

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.Status = StageStatusSkipped
		return stageError(stageID, "stage cancelled", ctxErr)
	}

	ctx, span := r.tracer.TraceStage(ctx, result.RunID, stageID)
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			err = stageError(stageID, "unexpected failure", fmt.Errorf("panic: %v", rec))
		}
		res.Duration = time.Since(res.StartTime)
		if err != nil {
			res.Status = StageStatusFailed
			res.Error = err.Error()
			r.logger.ErrorContext(ctx, "Stage failed",
				slog.String("stage", stageID),
				slog.String("error", err.Error()))
		} else {
			res.Status = StageStatusCompleted
			r.logger.DebugContext(ctx, "Stage completed",
				slog.String("stage", stageID),
				slog.Int("rows_in", res.RowsIn),
				slog.Int("rows_out", res.RowsOut),
				slog.Duration("duration", res.Duration))
		}
		r.tracer.RecordStageCompletion(ctx, span, res, err)
	}()

	if err := fn(ctx, res); err != nil {
		if _, typed := apperrors.TypeOf(err); typed {
			return err
		}
		return stageError(stageID, "stage failed", err)
	}
	return nil
}

// stageError wraps cause in the error type owned by the stage
func stageError(stageID, msg string, cause error) error {
	var appErr *apperrors.AppError
	switch stageID {
	case StageLoad:
		appErr = apperrors.NewLoadError(msg, cause)
	case StageClean:
		appErr = apperrors.NewCleaningError(msg, cause)
	case StageValidate:
		appErr = apperrors.NewValidationError(msg, cause)
	default:
		appErr = apperrors.NewReportError(msg, cause)
	}
	return appErr.WithContext("stage", stageID)
}
