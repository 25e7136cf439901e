package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved artifact locations of one run
type Paths struct {
	InputFile   string
	OutputDir   string
	CleanedFile string
	CleanedCSV  string
	SummaryFile string
	ChartFile   string
	LogFile     string
}

// Resolve joins every artifact name onto the output directory
func (p PathsConfig) Resolve() *Paths {
	return p.ResolveIn(p.OutputDir)
}

// ResolveIn is like Resolve but places the artifacts under dir instead of
// the configured output directory
func (p PathsConfig) ResolveIn(dir string) *Paths {
	return &Paths{
		InputFile:   p.InputFile,
		OutputDir:   dir,
		CleanedFile: filepath.Join(dir, p.CleanedFile),
		CleanedCSV:  filepath.Join(dir, p.CleanedCSV),
		SummaryFile: filepath.Join(dir, p.SummaryFile),
		ChartFile:   filepath.Join(dir, p.ChartFile),
		LogFile:     filepath.Join(dir, p.LogFile),
	}
}

// LogPath returns the log file location under the output directory
func (p PathsConfig) LogPath() string {
	return filepath.Join(p.OutputDir, p.LogFile)
}

// EnsureDirectories creates the output directory if it doesn't exist
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.OutputDir, err)
	}
	return nil
}

// LogPathResolution logs every resolved path at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Resolved paths",
		slog.String("input_file", p.InputFile),
		slog.String("output_dir", p.OutputDir),
		slog.String("cleaned_file", p.CleanedFile),
		slog.String("summary_file", p.SummaryFile),
		slog.String("chart_file", p.ChartFile),
		slog.String("log_file", p.LogFile))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
