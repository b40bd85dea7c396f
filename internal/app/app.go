package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"balag/internal/config"
	"balag/internal/dataprocessing"
	apperrors "balag/internal/errors"
	"balag/internal/infrastructure"
	"balag/internal/operations"
	"balag/internal/sources"
	"balag/internal/validation"
	"balag/pkg/contracts"
)

// Application holds what every binary needs to run a pipeline
type Application struct {
	Name      string
	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	OTel      *infrastructure.OTelProviders
	Validator *validation.Validator
}

// New loads the configuration and initializes the application named name
func New(name string) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(name, cfg)
}

// NewWithConfig initializes the application from an already loaded
// configuration
func NewWithConfig(name string, cfg *config.Config) (*Application, error) {
	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	if !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = paths.GetLogPath(filepath.Base(cfg.Logging.FilePath))
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = infrastructure.WithComponent(logger, name)

	logger.Info("Application starting",
		slog.String("name", name),
		slog.String("version", contracts.Version))
	paths.LogPathResolution(logger)

	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.ServiceName = infrastructure.ServiceName + "-" + name
	otelCfg.TraceExporter = cfg.Telemetry.Tracing
	otelCfg.EnableMetrics = cfg.Telemetry.MetricsFile
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	v, err := validation.NewValidator(cfg.Cleaning)
	if err != nil {
		return nil, fmt.Errorf("invalid cleaning rules: %w", err)
	}

	return &Application{
		Name:      name,
		Config:    cfg,
		Paths:     paths,
		Logger:    logger,
		OTel:      providers,
		Validator: v,
	}, nil
}

// SignalContext returns a run context cancelled on SIGINT or SIGTERM
func (a *Application) SignalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, runID := infrastructure.NewRunContext(ctx)
	a.Logger.InfoContext(ctx, "Run started", slog.String("run_id", runID))
	return ctx, stop
}

// Source returns the FTPS server when sources.remote is set and the raw data
// directory otherwise
func (a *Application) Source() (sources.Source, error) {
	if !a.Config.Sources.Remote {
		local := sources.NewLocalSource(a.Paths.RawDir, a.Logger)
		if err := local.CheckDir(); err != nil {
			return nil, apperrors.NewConfigError("raw data directory unusable", err).
				WithContext("dir", a.Paths.RawDir)
		}
		return local, nil
	}
	return a.FTP()
}

// FTP returns the FTPS source described by the account file
func (a *Application) FTP() (*sources.FTPSource, error) {
	account, err := sources.LoadAccount(a.Paths.GetAccountPath(a.Config.Sources.AccountFile))
	if err != nil {
		return nil, err
	}
	return sources.NewFTPSource(account, a.Config.Sources.Timeout, a.Logger), nil
}

// Cleaner returns a cleaner applying the configured rules
func (a *Application) Cleaner() *dataprocessing.Cleaner {
	return dataprocessing.NewCleaner(a.Validator, a.Logger, a.OTel.Metrics)
}

// Runner returns an empty step runner reporting to the application telemetry.
// Failed fetches are tried sources.fetch_attempts times.
func (a *Application) Runner() *operations.Runner {
	retry := operations.NewRetryConfig()
	retry.MaxAttempts = a.Config.Sources.FetchAttempts
	return operations.NewRunner(a.Logger, a.OTel.Tracer, a.OTel.Metrics).WithRetry(retry)
}

// MetricsFile is where Close dumps the metrics
func (a *Application) MetricsFile() string {
	return a.Paths.GetReportPath(a.Name + "_metrics.prom")
}

// Close dumps the metrics, shuts telemetry down and closes the log file
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.Config.Telemetry.MetricsFile {
		if err := a.OTel.WriteMetricsFile(a.MetricsFile()); err != nil {
			errs = append(errs, err)
		} else {
			a.Logger.Info("Metrics written", slog.String("file", a.MetricsFile()))
		}
	}
	if err := a.OTel.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
