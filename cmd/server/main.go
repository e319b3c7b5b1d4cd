package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/doclens/backend/config"
	"github.com/doclens/backend/internal/app"
	"github.com/doclens/backend/internal/logging"
	"github.com/doclens/backend/internal/version"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger := logging.New(cfg.Log)
	entry := logger.WithField("service", version.Service)

	entry.WithFields(logrus.Fields{
		"version":     version.Version,
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"storage":     cfg.Storage.Type,
		"cache":       cfg.Cache.Type,
	}).Info("starting DocLens backend")

	application, err := app.Build(cfg, logger)
	if err != nil {
		entry.WithError(err).Fatal("failed to initialize")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := application.Serve(ctx)
	if err := application.Close(); err != nil {
		entry.WithError(err).Warn("error releasing resources")
	}
	if serveErr != nil {
		entry.WithError(serveErr).Fatal("server stopped")
	}
	entry.Info("server stopped")
}
