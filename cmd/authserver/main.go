package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"interprep/internal/config"
	"interprep/internal/database"
	"interprep/internal/logger"
	"interprep/internal/routing"
	"interprep/pkg/handlers"
	"interprep/pkg/user"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireServer()
	}
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	log := logger.Load(cfg.LogLevel)

	db, err := database.Open(cfg.UsersDSN, user.Schema)
	if err != nil {
		log.Error("database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userHandler := handlers.NewUserHandler(
		user.NewService(user.NewSQLRepo(db)),
		log,
		cfg.JWTSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := routing.StartServer(ctx, cfg.Addr, routing.NewRouter(userHandler, log), log); err != nil {
		log.Error("server", "error", err)
	}
}
