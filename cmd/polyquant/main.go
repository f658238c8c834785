package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"polyquant/internal/app"
	pqcfg "polyquant/internal/config"
	"polyquant/internal/logger"
)

func main() {
	cfgPath := os.Getenv("POLYQUANT_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := pqcfg.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config failed: %v", err)
	}
	logger.SetLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		logger.SetFile(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
	}
	logger.Infof("config loaded from %s", cfgPath)

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("building app failed: %v", err)
	}

	if err := pqcfg.WatchRisk(cfgPath, application.Loop().SetRiskConfig); err != nil {
		logger.Warnf("risk config watcher unavailable: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("run failed: %v", err)
	}
	logger.Infof("shutdown complete")
}
