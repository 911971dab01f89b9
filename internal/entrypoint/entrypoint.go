package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	http_controllers "github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/logging"
	"github.com/mrlokans/library/internal/maintenance"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts down within
// the configured timeout.
func Serve(router http.Handler, cfg *config.Config, logger logrus.FieldLogger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-quit:
	}
	logger.WithField("timeout", timeout).Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("server shutdown")
	}

	// Stop background work after the last request has been served.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	logger.Info("server exiting")
	return nil
}

// Run builds the application and serves it.
func Run(cfg *config.Config, version string) error {
	logger := logging.New(cfg.Log)
	logger.WithField("version", version).Info("starting library service")
	if cfg.Auth.JWTSecret == "change-me" {
		logger.Warn("JWT_SECRET is the built-in default; set it before exposing the service")
	}

	gin.SetMode(gin.ReleaseMode)
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	}

	ctx := context.Background()
	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Seed(ctx); err != nil {
		return err
	}

	// Initialize task queue and scheduler if enabled
	var taskClient *tasks.Client
	var sched *scheduler.MaintenanceScheduler
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks, cfg.Audit), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.WithError(err).Warn("error closing task client")
			}
		}()

		taskClient.Register(
			tasks.NewReconcileBookStatusQueue(app.Ledger, app.Audit, logger),
			tasks.NewCleanupAuditEventsQueue(app.Audit, logger),
		)
		go taskClient.Start(bgCtx)

		if cfg.Scheduler.Enabled {
			sched = scheduler.NewMaintenanceScheduler(taskClient, cfg.Scheduler, logger)
			if err := sched.Start(bgCtx); err != nil {
				return err
			}
		}
	} else if cfg.Scheduler.Enabled {
		logger.Warn("scheduler requires the task queue; set TASKS_ENABLED=true to enable it")
	}

	rateLimiter := auth.NewRateLimiter(auth.RateLimitConfigFrom(cfg.Auth))
	defer rateLimiter.Stop()

	maintenanceMiddleware := maintenance.NewMiddleware(cfg.Maintenance.ReadOnly)
	if maintenanceMiddleware.IsReadOnly() {
		logger.Warn("read-only mode enabled; write requests will be refused")
	}

	routerCfg := http_controllers.RouterConfig{
		Logger:            logger,
		Version:           version,
		Catalog:           app.Catalog,
		Membership:        app.Membership,
		Lending:           app.Lending,
		Audit:             app.Audit,
		AuthService:       app.Auth,
		AuthMiddleware:    auth.NewMiddleware(app.Auth, logger),
		RateLimiter:       rateLimiter,
		Database:          app.DB,
		Maintenance:       maintenanceMiddleware,
		CORSAllowedOrigin: cfg.HTTP.CORSAllowedOrigin,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if sched != nil {
			sched.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		bgCancel()
	}

	return Serve(router, cfg, logger, onShutdown)
}
