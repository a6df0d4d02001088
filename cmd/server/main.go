package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bibharvest/bibharvest/internal/config"
	"github.com/bibharvest/bibharvest/internal/engine"
	"github.com/bibharvest/bibharvest/internal/logging"
	"github.com/bibharvest/bibharvest/internal/monitoring"
	"github.com/bibharvest/bibharvest/internal/sandbox"
	"github.com/bibharvest/bibharvest/internal/server"
	"github.com/bibharvest/bibharvest/internal/translator"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		logger = logging.NewDefault()
		logger.Warn("invalid logging config, using defaults", zap.Error(err))
	}
	defer logger.Sync()

	catalog, err := translator.LoadDir(cfg.Catalog.Dir, logger)
	if err != nil {
		logger.Fatal("failed to load translator catalog", zap.Error(err))
	}

	metrics := monitoring.New()
	fetcher := sandbox.NewFetcher(cfg.Fetch, metrics, logger.Named("fetch"))
	eng := engine.New(catalog, fetcher, cfg.Engine, metrics, logger.Named("engine"))
	srv := server.New(eng, catalog, metrics, logger.Named("server"))

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run(net.JoinHostPort(cfg.Server.Host, cfg.Server.Port))
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	case err := <-errChan:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadOrDefault(), nil
}
