package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"interprep/internal/config"
	"interprep/internal/console"
	"interprep/internal/database"
	"interprep/internal/logger"
	"interprep/pkg/api"
	"interprep/pkg/auth"
	"interprep/pkg/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	log := logger.Load(cfg.LogLevel)

	store, closeStore, err := openStorage(cfg.StorageDSN)
	if err != nil {
		log.Error("storage", "error", err)
		os.Exit(1)
	}
	// the tab's tokens go away with it
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := auth.New(auth.Config{BaseURL: cfg.APIURL, Timeout: cfg.HTTPTimeout}, store, log)
	client := api.New(cfg.APIURL, &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: api.NewTransport(manager, nil, log),
	})

	if err := manager.Bootstrap(ctx); err != nil {
		log.Warn("restoring session", "error", err)
	}

	if err := console.New(manager, client, log).Run(ctx, os.Stdin, os.Stdout); err != nil {
		log.Error("console", "error", err)
	}
}

func openStorage(dsn string) (session.Storage, func(), error) {
	if dsn == "" {
		s := session.NewMemoryStorage()
		return s, func() { s.Close() }, nil
	}

	db, err := database.Open(dsn, session.Schema)
	if err != nil {
		return nil, nil, err
	}
	s := session.NewSQLStorage(db)
	return s, func() {
		s.Close()
		db.Close()
	}, nil
}
