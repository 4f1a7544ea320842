package cmd

import (
	"fmt"
	"net/http"

	"github.com/rm-hull/photo-uniqualizer/internal"
	"github.com/rm-hull/photo-uniqualizer/internal/assets"
	"github.com/rm-hull/photo-uniqualizer/internal/batch"
	"github.com/rm-hull/photo-uniqualizer/internal/config"
	"github.com/rm-hull/photo-uniqualizer/internal/engine"
	"github.com/rm-hull/photo-uniqualizer/internal/logging"
	"github.com/rm-hull/photo-uniqualizer/internal/server"
	"go.uber.org/zap"
)

func ApiServer(configPath string, port int, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.Dev, cfg.LogFile)
	defer func() {
		_ = logger.Sync()
	}()

	internal.ShowVersion(logger)
	internal.UserInfo(logger)
	internal.EnvironmentVars(logger)

	store, err := assets.Load(cfg.AssetDir, logger)
	if err != nil {
		return err
	}

	eng := engine.New(cfg.Engine(), store, logger)
	runner, err := batch.NewRunner(eng, cfg.Workers, logger)
	if err != nil {
		return err
	}

	sched, err := internal.NewScheduler(runner.Stats(), cfg.StatsInterval, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			logger.Error("failed to shutdown scheduler", zap.Error(err))
		}
	}()

	r, err := server.New(eng, runner, logger).Router(server.Options{Metrics: true, Debug: debug})
	if err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	addr := fmt.Sprintf(":%d", port)
	logger.Info("starting HTTP API server", zap.Int("port", port))
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP API server failed to start on port %d: %w", port, err)
	}
	return nil
}
