// Package server wires the API and the submission worker together.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nebari-dev/wabastudio/internal/api"
	"github.com/nebari-dev/wabastudio/internal/api/handlers"
	"github.com/nebari-dev/wabastudio/internal/config"
	"github.com/nebari-dev/wabastudio/internal/crypto"
	"github.com/nebari-dev/wabastudio/internal/db"
	"github.com/nebari-dev/wabastudio/internal/events"
	"github.com/nebari-dev/wabastudio/internal/graph"
	"github.com/nebari-dev/wabastudio/internal/logger"
	"github.com/nebari-dev/wabastudio/internal/models"
	"github.com/nebari-dev/wabastudio/internal/queue"
	"github.com/nebari-dev/wabastudio/internal/rbac"
	"github.com/nebari-dev/wabastudio/internal/service"
	"github.com/nebari-dev/wabastudio/internal/worker"
)

// Config holds the server configuration options.
type Config struct {
	Port    int    // Port to run the server on (0 = use config default)
	Mode    string // Run mode: server, worker, or both (empty = use config default)
	Version string // Version string to report
}

// Run starts the server with the given configuration and blocks until the context is canceled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Version != "" {
		handlers.Version = cfg.Version
	}

	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Port != 0 {
		appCfg.Server.Port = cfg.Port
	}
	if cfg.Mode != "" {
		appCfg.Server.RunMode = cfg.Mode
	}

	mode := appCfg.Server.RunMode
	runServer := mode == "server" || mode == "both"
	runWorker := mode == "worker" || mode == "both"
	if !runServer && !runWorker {
		return fmt.Errorf("invalid mode %q: valid modes are server, worker, both", mode)
	}

	log := logger.Init(appCfg.Log.Format, appCfg.Log.Level)
	log.Info("Starting wabastudio", "version", cfg.Version, "mode", mode)

	database, err := db.New(appCfg.Database, appCfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("Database initialized", "driver", appCfg.Database.Driver)

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := rbac.InitEnforcer(database, log); err != nil {
		return fmt.Errorf("failed to initialize RBAC: %w", err)
	}

	serverID, err := db.GetOrCreateServerID(database)
	if err != nil {
		return fmt.Errorf("failed to initialize server ID: %w", err)
	}
	log.Info("Server ID initialized", "server_id", serverID)

	if err := db.CreateDefaultAdmin(database); err != nil {
		return fmt.Errorf("failed to create default admin user: %w", err)
	}

	if appCfg.Queue.Type == "valkey" && appCfg.Queue.ValkeyAddr == "" {
		return errors.New("valkey address is required when queue type is valkey")
	}
	jobQueue, err := queue.New(appCfg.Queue.Type, appCfg.Queue.ValkeyAddr, database)
	if err != nil {
		return fmt.Errorf("failed to initialize job queue: %w", err)
	}
	defer jobQueue.Close()
	log.Info("Job queue initialized", "type", appCfg.Queue.Type)

	publisher, err := events.New(appCfg.Events.AMQPURL, appCfg.Events.Exchange, log)
	if err != nil {
		return fmt.Errorf("failed to connect event publisher: %w", err)
	}
	defer publisher.Close()

	producer := appCfg.Events.Producer
	if producer == "" {
		producer = "wabastudio"
	}
	producer = producer + "/" + serverID

	sealer, err := crypto.NewSealer(appCfg.SealSecret())
	if err != nil {
		return fmt.Errorf("failed to initialize token sealer: %w", err)
	}

	gc := graph.New(appCfg.Graph)
	connections := service.NewConnectionService(database, sealer)
	templates := service.NewTemplateService(database, connections, gc, publisher, producer, log)

	var workerCancel context.CancelFunc
	if runWorker {
		w := worker.New(database, jobQueue, log, appCfg.Worker.MaxConcurrentJobs)
		w.Handle(models.JobTypeSubmitTemplate, templates.ProcessSubmission)

		workerCtx, cancel := context.WithCancel(ctx)
		workerCancel = cancel
		go func() {
			if err := w.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Worker failed", "error", err)
			}
		}()
		log.Info("Worker started", "max_concurrent_jobs", appCfg.Worker.MaxConcurrentJobs)
	}

	var srv *http.Server
	if runServer {
		router := api.NewRouter(appCfg, database, api.Services{
			Workspaces:  service.NewWorkspaceService(database),
			Connections: connections,
			Drafts:      service.NewDraftService(database, jobQueue, connections, gc),
			Templates:   templates,
			Jobs:        service.NewJobService(database),
		}, log)

		addr := fmt.Sprintf(":%d", appCfg.Server.Port)
		srv = &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Info("Server listening", "address", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Server failed", "error", err)
			}
		}()
	}

	<-ctx.Done()
	log.Info("Shutting down...")

	if workerCancel != nil {
		workerCancel()
		log.Info("Worker stopped")
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		log.Info("Server stopped")
	}

	log.Info("wabastudio exited")
	return nil
}

// RunWithSignalHandling starts the server and handles OS signals for graceful shutdown.
func RunWithSignalHandling(cfg Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, cfg)
	}()

	select {
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig)
		cancel()
		return <-errCh
	case err := <-errCh:
		return err
	}
}
