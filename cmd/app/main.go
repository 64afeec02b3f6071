package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waterdist/cmd"
	apihttp "waterdist/internal/adapters/in/http"
	"waterdist/internal/adapters/out/postgres"
	"waterdist/internal/pkg/logger"

	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := cmd.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	base, err := logger.New(cfg.Log)
	if err != nil && base == nil {
		return err
	}
	defer func() { _ = base.Sync() }()
	sugar := base.Sugar()
	if err != nil {
		sugar.Warnw("log_file_unavailable", "error", err)
	}

	db, err := postgres.Open(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.Pool, cfg.Database.LogLevel)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		defer sqlDB.Close()
	}
	if err = postgres.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	app, err := cmd.NewCompositionRoot(cfg, db, sugar)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			sugar.Warnw("close_clients_failed", "error", closeErr)
		}
	}()

	jobManager, err := app.CreateJobManager()
	if err != nil {
		return err
	}
	if err = jobManager.StartAll(); err != nil {
		return fmt.Errorf("start jobs: %w", err)
	}
	defer jobManager.StopAll()

	if w := app.CreateWorker(); w != nil {
		if err = w.Start(); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
		defer w.Stop()
	}

	return serve(app.CreateHTTPServer(), cfg.HTTP.Port, cfg.Log.Mode, sugar)
}

func serve(server *apihttp.Server, port int, mode string, sugar *zap.SugaredLogger) error {
	e := server.NewEcho()
	if mode == logger.ModeDebug {
		e.Logger.SetLevel(log.DEBUG)
	} else {
		e.Logger.SetLevel(log.WARN)
	}
	e.HidePort = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("http_server_started", "port", port)
		errCh <- e.Start(fmt.Sprintf("0.0.0.0:%d", port))
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sugar.Infow("shutdown_started")
	if err := apihttp.Shutdown(e, shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	sugar.Infow("shutdown_complete")
	return nil
}
