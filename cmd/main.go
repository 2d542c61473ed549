package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/edurank/internal/adapters/http/api"
	"github.com/okian/edurank/internal/adapters/http/swagger"
	"github.com/okian/edurank/internal/adapters/repository"
	app "github.com/okian/edurank/internal/app"
	"github.com/okian/edurank/internal/config"
	"github.com/okian/edurank/internal/fixtures"
	"github.com/okian/edurank/pkg/logger"
	"github.com/okian/edurank/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	format, err := logger.ParseFormat(cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.InitWith(os.Stdout, format); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Configure(metricsOptions(cfg)...)

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "edurank exited with error", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the store, the service and the HTTP server, and blocks until
// ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn(context.Background(), "closing store failed", logger.Error(err))
		}
	}()

	svc := app.New(
		app.WithStore(store),
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithFetchConcurrency(cfg.FetchConcurrency),
		app.WithMaxRosterSize(cfg.MaxRosterSize),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop(context.Background())

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openStore builds the configured repository. The memory store is seeded
// with a demo roster when demo_students is positive.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := repository.OpenPostgres(cfg.DatabaseURL, cfg.LogLevel == "debug")
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		store, err := repository.NewGormStore(ctx, db, repository.WithAutoMigrate())
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres store: %w", err)
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		log.Info(ctx, "using postgres store")
		return store, store.Close, nil
	default:
		store := repository.NewMemStore()
		if cfg.DemoStudents > 0 {
			ds, err := fixtures.Generate(ctx, store,
				fixtures.WithStudents(cfg.DemoStudents),
				fixtures.WithSeed(cfg.DemoSeed),
				fixtures.WithLogger(log.Named("fixtures")),
			)
			if err != nil {
				return nil, nil, fmt.Errorf("seed demo roster: %w", err)
			}
			log.Info(ctx, "demo roster ready", logger.String("teacherID", ds.Teacher.ID.String()))
		}
		log.Info(ctx, "using memory store")
		return store, func() error { return nil }, nil
	}
}

// metricsOptions maps the metrics section of the config onto the manager.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHistogramBuckets(cfg.MetricsLatencyBuckets),
		metrics.WithConstLabels(cfg.MetricsLabels),
	}
}

// newMux registers the docs and business routes.
func newMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
