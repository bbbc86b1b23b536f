package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/virtdesk/vdesk/internal/config"
	"github.com/virtdesk/vdesk/internal/daemon"
	"github.com/virtdesk/vdesk/internal/x11"
)

func runDaemon() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	backend, err := x11.NewBackendFromDisplay()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()

	d, err := daemon.New(cfg, backend, logger)
	if err != nil {
		log.Fatalf("Failed to initialize daemon: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("vdesk daemon started",
		"startup_desktop", cfg.StartupDesktop,
		"refresh_interval", cfg.RefreshInterval.Std())

	if err := d.Run(ctx); err != nil {
		log.Fatalf("Daemon exited with error: %v", err)
	}
	logger.Info("vdesk daemon stopped")
}
