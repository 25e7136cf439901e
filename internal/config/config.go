package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment variable read by Load
const EnvPrefix = "EXCELFLOW"

// Config represents the complete application configuration
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// PipelineConfig contains the cleaning, validation and report settings
type PipelineConfig struct {
	AmountColumn  string `yaml:"amount_column" envconfig:"AMOUNT_COLUMN" validate:"required"`
	Rule          string `yaml:"rule" envconfig:"RULE" validate:"required"`
	UnknownText   string `yaml:"unknown_text" envconfig:"UNKNOWN_TEXT" validate:"required"`
	HistogramBins int    `yaml:"histogram_bins" envconfig:"HISTOGRAM_BINS" validate:"min=1,max=1000"`
	WriteCSV      bool   `yaml:"write_csv" envconfig:"WRITE_CSV"`
	PreviewRows   int    `yaml:"preview_rows" envconfig:"PREVIEW_ROWS" validate:"min=0"`
}

// PathsConfig contains the input and output locations
type PathsConfig struct {
	InputFile   string `yaml:"input_file" envconfig:"INPUT_FILE"`
	OutputDir   string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	CleanedFile string `yaml:"cleaned_file" envconfig:"CLEANED_FILE" validate:"required"`
	CleanedCSV  string `yaml:"cleaned_csv" envconfig:"CLEANED_CSV" validate:"required"`
	SummaryFile string `yaml:"summary_file" envconfig:"SUMMARY_FILE" validate:"required"`
	ChartFile   string `yaml:"chart_file" envconfig:"CHART_FILE" validate:"required"`
	LogFile     string `yaml:"log_file" envconfig:"LOG_FILE" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"omitempty,oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains HTTP server configuration for the interactive front end
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64           `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			AmountColumn:  DefaultAmountColumn,
			Rule:          DefaultRule,
			UnknownText:   DefaultUnknownText,
			HistogramBins: DefaultHistogramBins,
			WriteCSV:      false,
			PreviewRows:   DefaultPreviewRows,
		},
		Paths: PathsConfig{
			InputFile:   DefaultInputFile,
			OutputDir:   DefaultOutputDir,
			CleanedFile: CleanedFileName,
			CleanedCSV:  CleanedCSVName,
			SummaryFile: SummaryFileName,
			ChartFile:   ChartFileName,
			LogFile:     LogFileName,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "both",
		},
		Server: ServerConfig{
			Port:            8501,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadBytes:  32 << 20,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			EnableMetrics: true,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// configFile (or the first file found in the standard locations when
// configFile is empty) and EXCELFLOW_* environment variables
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Env vars without a value leave the field untouched, so they only
	// override what defaults and the file already set
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize applies the logging rules shared by every front end
func (c *Config) normalize() {
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = c.Paths.LogPath()
	}
}

// Validate checks the configuration against its struct constraints
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"excelflow.yaml",
		"configs/excelflow.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}
