package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	lamina "github.com/laminadb/lamina"
	"github.com/laminadb/lamina/internal/config"
	logpkg "github.com/laminadb/lamina/internal/logger"
	"github.com/laminadb/lamina/internal/metrics"
	chiTransport "github.com/laminadb/lamina/internal/transport/chi"
	healthuc "github.com/laminadb/lamina/internal/usecase/health"
	"github.com/laminadb/lamina/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: config/<ENV>.yaml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("lamina %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		return
	}

	env := config.GetEnv()

	var cfg config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting lamina client",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("backend", cfg.Backend.Driver),
		zap.Int("ops_port", cfg.Ops.Port),
	)

	metrics.RegisterViewMetrics()

	ctx := context.Background()
	client, err := lamina.Open(ctx, cfg, lamina.WithLogger(logger))
	if err != nil {
		logger.Fatal("Failed to open backend", zap.Error(err))
	}
	defer func() { _ = client.Close() }()
	logger.Info("Backend ready", zap.String("driver", cfg.Backend.Driver))

	// Operational listener: health, readiness, version and metrics.
	var srv *http.Server
	if cfg.Ops.Port > 0 {
		var pinger healthuc.StorePinger
		if p := client.BackendPinger(); p != nil {
			pinger = p
		}
		opsServer := chiTransport.NewServer(healthuc.New(pinger), logger)

		addr := fmt.Sprintf(":%d", cfg.Ops.Port)
		srv = &http.Server{
			Addr:         addr,
			Handler:      opsServer.Routes(cfg.Auth.APIKeys),
			ReadTimeout:  time.Duration(cfg.Ops.ReadTimeoutSec) * time.Second,
			WriteTimeout: time.Duration(cfg.Ops.WriteTimeoutSec) * time.Second,
		}

		go func() {
			logger.Info("Starting ops listener", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("Ops listener error", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		runShell(ctx, client)
		close(done)
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case <-done:
		logger.Info("Shell exited")
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Ops.ShutdownSec)*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	}

	logger.Info("Stopped gracefully")
}
