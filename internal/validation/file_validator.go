package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "excelflow/internal/errors"
)

// workbookExtensions are the spreadsheet formats excelize can open
var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// FileValidator provides pre-flight checks shared by both front ends
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputFile checks that path is an existing, readable, non-temporary file
func (v *FileValidator) ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input file does not exist",
			slog.String("file", path))
		return apperrors.NewLoadError(fmt.Sprintf("input file %s does not exist", path), err).
			WithContext("source", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat input file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewLoadError(fmt.Sprintf("failed to stat input file %s", path), err).
			WithContext("source", path)
	}
	if info.IsDir() {
		v.logger.Error("Input path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewLoadError(fmt.Sprintf("%s is a directory, not a file", path), nil).
			WithContext("source", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Input file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewLoadError(fmt.Sprintf("input file %s is not readable", path), err).
			WithContext("source", path)
	}
	file.Close()

	if err := v.ValidateFileName(path); err != nil {
		return err
	}

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateFileName checks the name of an input or uploaded file. Unknown
// extensions are read as workbooks and only logged.
func (v *FileValidator) ValidateFileName(name string) error {
	base := filepath.Base(name)
	if strings.TrimSpace(name) == "" || base == "." || base == string(filepath.Separator) {
		return apperrors.NewInputError("file name is required")
	}
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Rejecting temporary Excel file",
			slog.String("file", name))
		return apperrors.NewInputError(fmt.Sprintf("file %s is a temporary Excel file", base))
	}

	ext := strings.ToLower(filepath.Ext(base))
	if ext != ".csv" && !workbookExtensions[ext] {
		v.logger.Warn("Unrecognized extension, reading as workbook",
			slog.String("file", name),
			slog.String("extension", ext))
	}
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewReportError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewReportError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}
