package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gwon477/dmarket/api/routes"
	"github.com/gwon477/dmarket/internal/board"
	"github.com/gwon477/dmarket/internal/ledger"
	"github.com/gwon477/dmarket/internal/mileage"
	"github.com/gwon477/dmarket/internal/notifications"
	"github.com/gwon477/dmarket/internal/orders"
	"github.com/gwon477/dmarket/internal/returns"
	"github.com/gwon477/dmarket/internal/users"
	"github.com/gwon477/dmarket/internal/workflow"
	"github.com/gwon477/dmarket/pkg/config"
	"github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/logger"
	"github.com/gwon477/dmarket/pkg/metrics"
	"github.com/gwon477/dmarket/pkg/migrate"
	"github.com/gwon477/dmarket/pkg/outbox"
	"github.com/gwon477/dmarket/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	deps, err := buildDeps(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire api dependencies", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shutting down gracefully")
	}
}

// buildDeps assembles the repositories, engines and the workflow coordinator.
func buildDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Deps, error) {
	conn := dbClient.DB()
	reg := prometheus.DefaultRegisterer
	dir := users.NewDirectory(conn)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), dbClient)
	if err != nil {
		return routes.Deps{}, err
	}
	orderRepo := orders.NewRepository(conn)
	orderEngine, err := orders.NewEngine(orderRepo, dir)
	if err != nil {
		return routes.Deps{}, err
	}
	orderSvc, err := orders.NewService(orderRepo)
	if err != nil {
		return routes.Deps{}, err
	}
	returnRepo := returns.NewRepository(conn)
	returnEngine, err := returns.NewEngine(returnRepo, dir, ledgerSvc)
	if err != nil {
		return routes.Deps{}, err
	}
	returnSvc, err := returns.NewService(returnRepo)
	if err != nil {
		return routes.Deps{}, err
	}
	mileageRepo := mileage.NewRepository(conn)
	mileageEngine, err := mileage.NewEngine(mileageRepo, dir, ledgerSvc)
	if err != nil {
		return routes.Deps{}, err
	}
	mileageSvc, err := mileage.NewService(mileageRepo)
	if err != nil {
		return routes.Deps{}, err
	}
	boardEngine, err := board.NewEngine(board.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, err
	}

	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	dispatcher, err := notifications.NewDispatcher(emitter, logg, metrics.NewNotificationMetrics(reg))
	if err != nil {
		return routes.Deps{}, err
	}
	coordinator, err := workflow.NewCoordinator(workflow.Deps{
		Tx:       dbClient,
		Orders:   orderEngine,
		Returns:  returnEngine,
		Mileage:  mileageEngine,
		Board:    boardEngine,
		Notifier: dispatcher,
		Logger:   logg,
		Metrics:  metrics.NewWorkflowMetrics(reg),
	})
	if err != nil {
		return routes.Deps{}, err
	}
	notificationSvc, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		Workflow:      coordinator,
		Orders:        orderSvc,
		Returns:       returnSvc,
		Mileage:       mileageSvc,
		Ledger:        ledgerSvc,
		Notifications: notificationSvc,
		Metrics:       promhttp.Handler(),
	}, nil
}
