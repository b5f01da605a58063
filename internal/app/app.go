package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/daylog/internal/config"
	"github.com/MrSnakeDoc/daylog/internal/httpserver"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/daylog/internal/hub"
	"github.com/MrSnakeDoc/daylog/internal/logger"
	"github.com/MrSnakeDoc/daylog/internal/scheduler"
	"github.com/MrSnakeDoc/daylog/internal/store"
	"github.com/MrSnakeDoc/daylog/internal/utils"
	"github.com/MrSnakeDoc/daylog/internal/version"
	"github.com/MrSnakeDoc/daylog/internal/workspace"
)

// job is a background loop of the scheduler package
type job interface {
	Start(ctx context.Context) error
	Stop()
}

type namedJob struct {
	name string
	job  job
}

type App struct {
	cfg        *config.Config
	logger     logger.Logger
	server     *httpserver.Server
	backend    store.Backend
	hub        *hub.Hub
	workspaces *workspace.Registry
	jobs       []namedJob
}

// New opens the configured store and wires every component. The store is
// dialed eagerly so a misconfigured backend fails at start.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	loggerClient.Info("opening entry store", logger.String("backend", cfg.Store))
	backend, err := store.Open(ctx, cfg, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store, err)
	}
	loggerClient.Info("entry store ready", logger.String("backend", backend.Name()))

	eventHub := hub.New(loggerClient, cfg.AllowedHosts)
	workspaces := workspace.NewRegistry(backend, eventHub, loggerClient, workspace.Options{
		Cooldown:   cfg.AutosaveCooldown,
		SyncOnOpen: true,
	})

	jobs := []namedJob{
		{"catalog syncer", scheduler.NewCatalogSyncer(workspaces, loggerClient, cfg.CatalogSyncInterval)},
		{"session reaper", scheduler.NewSessionReaper(workspaces, loggerClient, cfg.SessionSweepInterval, cfg.SessionIdleTTL)},
	}

	var importTrigger chan struct{}
	if cfg.ArchiveFile != "" {
		loggerClient.Info("archive file configured, initializing importer",
			logger.String("file", cfg.ArchiveFile))
		importTrigger = make(chan struct{}, 1)
		jobs = append(jobs, namedJob{"archive importer", scheduler.NewArchiveImporter(
			cfg.ArchiveFile,
			workspaces,
			loggerClient,
			cfg.ArchiveInterval,
			importTrigger,
		)})
	} else {
		loggerClient.Info("archive file not configured, import disabled")
	}

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		APIToken:      cfg.APIToken,
		RateBurst:     cfg.RateBurst,
		RatePerMin:    cfg.RatePerMin,
		Store:         backend,
		Workspaces:    workspaces,
		Hub:           eventHub,
		ImportTrigger: importTrigger,
	}

	return &App{
		cfg:        cfg,
		logger:     loggerClient,
		server:     httpserver.New(cfg, loggerClient, d),
		backend:    backend,
		hub:        eventHub,
		workspaces: workspaces,
		jobs:       jobs,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting daylog v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.Get().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	started := make([]namedJob, 0, len(a.jobs))
	for _, j := range a.jobs {
		if err := j.job.Start(ctx); err != nil {
			a.stopJobs(started)
			return fmt.Errorf("failed to start %s: %w", j.name, err)
		}
		started = append(started, j)
		a.logger.Info(j.name + " started")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.stopJobs(started)
	return errors.Join(runErr, a.shutdown())
}

func (a *App) stopJobs(jobs []namedJob) {
	for _, j := range jobs {
		j.job.Stop()
	}
}

// shutdown stops the server first so no edit arrives after the final
// flush, then flushes every session before closing the store
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop server: %w", err))
	}

	if err := a.workspaces.CloseAll(shutdownCtx); err != nil {
		a.logger.Error("unsaved edits lost at shutdown", logger.Error(err))
		errs = append(errs, err)
	} else {
		a.logger.Info("✅ Editing sessions flushed")
	}

	utils.MustClose(a.backend, a.backend.Name()+" store", a.logger)
	if len(errs) == 0 {
		a.logger.Info("✅ daylog stopped cleanly")
	}
	return errors.Join(errs...)
}
