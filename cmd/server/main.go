package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusDelivery/internal/config"
	"campusDelivery/internal/db"
	"campusDelivery/internal/events"
	grpcserver "campusDelivery/internal/grpc"
	"campusDelivery/internal/httpapi"
	"campusDelivery/internal/logging"
	"campusDelivery/internal/metrics"
	"campusDelivery/internal/service"
	"campusDelivery/repository"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

func main() {
	migrateDown := flag.Bool("migrate-down", false, "roll back the last applied migration and exit")
	flag.Parse()

	// Production refuses to start without JWT_SECRET.
	cfg, err := config.LoadWithDefaults()
	if err == nil && cfg.IsProduction() {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New("campus-delivery", cfg.LogLevel, os.Stdout)
	logger.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	if *migrateDown {
		err = rollback(cfg, logger)
	} else {
		err = run(ctx, cfg, logger)
	}
	stop()
	if err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func rollback(cfg *config.Config, logger *slog.Logger) error {
	d, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer closeLogged(logger, "close db", d.Close)
	if err := db.RollbackLast(d); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	logger.Info("rolled back last migration")
	return nil
}

// run serves HTTP and gRPC until ctx is cancelled or a server fails. Storage
// and the events publisher are closed on every return path.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	d, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer closeLogged(logger, "close db", d.Close)

	publisher, err := events.FromConfig(cfg.Events)
	if err != nil {
		return fmt.Errorf("events backend %q: %w", cfg.Events.Backend, err)
	}
	defer closeLogged(logger, "close events publisher", publisher.Close)

	m := metrics.New()
	userRepo := repository.NewUserRepository(d)
	estRepo := repository.NewEstablishmentRepository(d)
	orderRepo := repository.NewOrderRepository(d, userRepo)

	users := service.NewUserService(userRepo, cfg.Identity, cfg.Auth)
	establishments := service.NewEstablishmentService(estRepo, logger)
	orders := service.NewOrderService(orderRepo, estRepo, publisher, m, logger, cfg.Orders)

	seedCtx, cancelSeed := context.WithTimeout(ctx, 10*time.Second)
	_, err = establishments.Seed(seedCtx)
	cancelSeed()
	if err != nil {
		return fmt.Errorf("seed establishments: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.Deps{
		Config:         cfg,
		DB:             d,
		Users:          users,
		Establishments: establishments,
		Orders:         orders,
		Metrics:        m,
		Log:            logger,
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 2)
	go func() {
		logger.Info("http server listening", "address", cfg.HTTP.Address)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
		}
	}()

	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Address != "" {
		if grpcSrv, err = grpcserver.StartGRPC(cfg, users, logger); err != nil {
			serveErr <- fmt.Errorf("start grpc: %w", err)
		} else {
			logger.Info("grpc server listening", "address", grpcSrv.Addr().String())
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-serveErr:
		logger.Error("server failed, shutting down", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if grpcSrv != nil {
		if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("grpc shutdown", "error", err)
		}
	}
	return runErr
}

func closeLogged(logger *slog.Logger, what string, fn func() error) {
	if err := fn(); err != nil {
		logger.Error(what, "error", err)
	}
}
