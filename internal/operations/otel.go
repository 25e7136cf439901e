package operations

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"excelflow/internal/infrastructure"
)

// StageTracer provides OpenTelemetry instrumentation for pipeline stages
type StageTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewStageTracer creates a stage tracer from the providers
func NewStageTracer(providers *infrastructure.OTelProviders) (*StageTracer, error) {
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	return &StageTracer{tracer: providers.Tracer, metrics: metrics}, nil
}

// TraceStage creates a span for one stage execution
func (st *StageTracer) TraceStage(ctx context.Context, runID, stageID string) (context.Context, trace.Span) {
	ctx, span := st.tracer.Start(ctx, "pipeline.stage."+stageID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("stage.id", stageID),
		),
	)

	st.metrics.StageExecutions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("stage_id", stageID)))

	return ctx, span
}

// RecordStageCompletion records duration, row counts and status of a stage
func (st *StageTracer) RecordStageCompletion(ctx context.Context, span trace.Span, res *StageResult, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("stage_id", res.ID),
		attribute.String("status", status),
	)

	span.SetAttributes(
		attribute.String("stage.status", status),
		attribute.Float64("stage.duration_seconds", res.Duration.Seconds()),
		attribute.Int("stage.rows_in", res.RowsIn),
		attribute.Int("stage.rows_out", res.RowsOut),
	)
	st.metrics.StageDuration.Record(ctx, res.Duration.Seconds(), attrs)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		st.metrics.StageErrors.Add(ctx, 1, attrs)
		return
	}
	span.SetStatus(codes.Ok, "stage completed")
}

// RecordRowsLoaded counts rows read from an input file
func (st *StageTracer) RecordRowsLoaded(ctx context.Context, source string, rows int) {
	st.metrics.RowsLoaded.Add(ctx, int64(rows),
		metric.WithAttributes(attribute.String("source", source)))
}

// RecordRowsRemoved counts rows dropped by a stage
func (st *StageTracer) RecordRowsRemoved(ctx context.Context, stageID string, rows int) {
	if rows <= 0 {
		return
	}
	st.metrics.RowsRemoved.Add(ctx, int64(rows),
		metric.WithAttributes(attribute.String("stage_id", stageID)))
}
