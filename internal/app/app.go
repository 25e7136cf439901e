package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"excelflow/internal/config"
	apperrors "excelflow/internal/errors"
	"excelflow/internal/infrastructure"
	customMiddleware "excelflow/internal/middleware"
	"excelflow/internal/operations"
	"excelflow/internal/services"
	handlers "excelflow/internal/transport/http"
	"excelflow/pkg/contracts"

	"github.com/go-chi/chi/v5"
)

const defaultShutdownTimeout = 15 * time.Second

// Application represents the web application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Runner        *operations.Runner
	Datasets      *services.DatasetService
	Health        *services.HealthService
	ErrorHandler  *apperrors.ErrorHandler
	Router        *chi.Mux
	Server        *http.Server

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// NewApplication loads the configuration, installs the process logger and
// builds the application. configFile may be empty.
func NewApplication(configFile string) (*Application, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires the application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	paths := cfg.Paths.Resolve()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, apperrors.NewConfigError("failed to ensure directories", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to initialize OpenTelemetry", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		ErrorHandler:  apperrors.NewErrorHandler(logger, false),
	}

	if err := a.initializeServices(); err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if _, err := a.Datasets.SweepStaleOutputs(context.Background()); err != nil {
		logger.Warn("Failed to sweep stale dataset outputs", slog.String("error", err.Error()))
	}

	if err := a.setupRouter(); err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	a.createServer()

	return a, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	runner, err := operations.NewRunner(a.Config.Pipeline, a.OTelProviders, a.Logger)
	if err != nil {
		return err
	}
	a.Runner = runner
	a.Datasets = services.NewDatasetService(runner, a.Config.Paths, a.Logger)
	a.Health = services.NewHealthService(a.Config.Paths.OutputDir, a.Datasets, a.Logger)
	return nil
}

// setupRouter builds the chi router and its middleware chain
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	metrics := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP)
	if metrics.Enabled() {
		r.Handle("/metrics", metrics)
	}

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return err
	}

	datasetHandler := handlers.NewDatasetHandler(a.Datasets, a.Logger, a.ErrorHandler)
	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)

	r.Group(func(r chi.Router) {
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		r.NotFound(a.ErrorHandler.NotFound)
		r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

		r.Get("/", handlers.ServeIndex(contracts.Version, a.Logger))

		r.Route("/api", func(r chi.Router) {
			r.Use(customMiddleware.RateLimit(a.Config.Server.RateLimit, a.Logger))

			r.Get("/health", healthHandler.HealthCheck)
			r.With(customMiddleware.MaxBodySize(a.Config.Server.MaxUploadBytes)).
				Mount("/datasets", datasetHandler.Routes())
		})
	})

	a.Router = r
	return nil
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start binds the listener and serves in the background
func (a *Application) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	serveErr := make(chan error, 1)
	a.mu.Lock()
	a.listener = ln
	a.serveErr = serveErr
	a.mu.Unlock()

	go func() {
		defer close(serveErr)
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			serveErr <- err
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", "http://"+ln.Addr().String()),
		slog.String("output_dir", a.Config.Paths.OutputDir),
		slog.String("level", a.Config.Logging.Level))
	return nil
}

// Addr returns the bound listener address, or "" before Start
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete",
		slog.Int("datasets_discarded", a.Datasets.Count()))
	return errors.Join(errs...)
}

// Run serves until ctx is cancelled, SIGINT/SIGTERM arrives or the server fails
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	done := a.serveErr
	a.mu.Unlock()

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Received shutdown signal")
	case serveErr = <-done:
	}

	if err := a.Stop(context.Background()); err != nil {
		return errors.Join(serveErr, err)
	}
	return serveErr
}
