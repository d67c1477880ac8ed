package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SashaDiz/directoryhunt-sub001/internal/app"
	"github.com/SashaDiz/directoryhunt-sub001/internal/config"
	"github.com/SashaDiz/directoryhunt-sub001/internal/observability"
	"github.com/SashaDiz/directoryhunt-sub001/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	httpLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	}))

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}

	stopProfiler, err := observability.InitPyroscope(cfg, httpLogger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	pprofSrv, err := observability.StartPprofServer(cfg, httpLogger)
	if err != nil {
		logger.Error("start pprof server", "error", err)
		os.Exit(1)
	}

	srv, cleanup, err := app.NewHTTPServer(cfg, logger, httpLogger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := cleanup(shutdownCtx); err != nil {
		logger.Error("close storage", "error", err)
	}
	if err := observability.StopPprofServer(pprofSrv, httpLogger, 5*time.Second); err != nil {
		logger.Error("stop pprof server", "error", err)
	}
	if stopProfiler != nil {
		if err := stopProfiler(); err != nil {
			logger.Error("stop profiler", "error", err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("shutdown tracing", "error", err)
	}

	logger.Info("http server stopped")
}

func slogLevel(level logging.Level) slog.Level {
	switch level {
	case logging.LevelDebug:
		return slog.LevelDebug
	case logging.LevelWarn:
		return slog.LevelWarn
	case logging.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
