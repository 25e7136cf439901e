// Command excelflow runs the cleaning pipeline on one input file:
// load, remove duplicates, fill missing values, drop rows failing the
// amount rule, then write the cleaned workbook and the summary report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"excelflow/internal/config"
	"excelflow/internal/dataprocessing"
	apperrors "excelflow/internal/errors"
	"excelflow/internal/infrastructure"
	"excelflow/internal/operations"
	"excelflow/internal/validation"
	"excelflow/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("excelflow", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inFile := fs.String("in", "", "input .xlsx or .csv file (default "+config.DefaultInputFile+")")
	actionName := fs.String("action", string(operations.ActionAll), "all, clean, transform, validate or report")
	preview := fs.Int("preview", -1, "print the first N processed rows (default from config)")
	writeCSV := fs.Bool("csv", false, "also write the cleaned dataset as CSV")
	configFile := fs.String("config", "", "path to a YAML config file")
	showVersion := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	action, err := operations.ParseAction(*actionName)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}
	if *inFile != "" {
		cfg.Paths.InputFile = *inFile
	}
	if *writeCSV {
		cfg.Pipeline.WriteCSV = true
	}
	if *preview >= 0 {
		cfg.Pipeline.PreviewRows = *preview
	}

	paths := cfg.Paths.Resolve()
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize logger: %v\n", err)
		return 1
	}
	defer infrastructure.CloseLogFile()
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer providers.Shutdown(context.Background())

	if err := validation.NewFileValidator(logger).ValidateInputFile(paths.InputFile); err != nil {
		logger.ErrorContext(ctx, "Input file rejected", slog.String("error", err.Error()))
		fmt.Fprintln(stderr, userMessage(err))
		return 1
	}

	runner, err := operations.NewRunner(cfg.Pipeline, providers, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid pipeline settings", slog.String("error", err.Error()))
		fmt.Fprintln(stderr, userMessage(err))
		return 1
	}

	result, err := runner.Run(ctx, action, paths)
	if err != nil {
		logger.ErrorContext(ctx, "Automation failed",
			slog.String("run_id", result.RunID),
			slog.String("error", err.Error()))
		fmt.Fprintln(stderr, userMessage(err))
		return 1
	}

	if cfg.Pipeline.PreviewRows > 0 {
		if err := dataprocessing.RenderPreview(stdout, result.Table, cfg.Pipeline.PreviewRows); err != nil {
			logger.WarnContext(ctx, "Failed to render preview", slog.String("error", err.Error()))
		}
	}

	fmt.Fprintf(stdout, "Processed %d rows.\n", result.Table.Len())
	for _, artifact := range result.Artifacts.List() {
		fmt.Fprintf(stdout, "  wrote %s\n", artifact)
	}
	return 0
}

// userMessage turns a pipeline error into the line printed on stderr
func userMessage(err error) string {
	errType, ok := apperrors.TypeOf(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	switch errType {
	case apperrors.ErrTypeLoad:
		return fmt.Sprintf("Error loading data: %v", err)
	case apperrors.ErrTypeCleaning:
		return fmt.Sprintf("Error cleaning data: %v", err)
	case apperrors.ErrTypeValidation:
		return fmt.Sprintf("Error validating data: %v", err)
	case apperrors.ErrTypeReport:
		return fmt.Sprintf("Error generating report: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
