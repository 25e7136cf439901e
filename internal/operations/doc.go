// Package operations runs the cleaning pipeline for both front ends.
//
// A Runner sequences the stages Loader → Cleaner → Validator → Reporter.
// Each stage executes inside its own OpenTelemetry span, records the
// pipeline counters and converts failures (including panics) into the
// typed errors of excelflow/internal/errors.
//
// Actions:
//
//   - all: load, clean, validate, save the cleaned dataset, report
//   - clean / transform: deduplicate and fill missing values
//   - validate: keep rows passing the business rule
//   - report: summary workbook and histogram chart
//
// Example usage:
//
//	runner, err := operations.NewRunner(cfg.Pipeline, providers, logger)
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Run(ctx, operations.ActionAll, cfg.Paths.Resolve())
//
// The CLI calls Run once. The HTTP adapter loads a Table once and calls
// Apply for each requested action, keeping the previous Table when an
// action fails.
package operations
