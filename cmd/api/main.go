package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/avelasco/payplan/internal/config"
	"github.com/avelasco/payplan/internal/database"
	payplanHttp "github.com/avelasco/payplan/internal/http"
	plansHandler "github.com/avelasco/payplan/internal/http/plans"
	"github.com/avelasco/payplan/internal/logging"
	"github.com/avelasco/payplan/internal/plan"
	"github.com/avelasco/payplan/internal/storage/cached"
	"github.com/avelasco/payplan/internal/storage/hosted"
)

func main() {
	_ = godotenv.Load()

	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.JWTSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString(), database.Pool{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := hosted.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// The server never serves the active-plan pointer; it is device
	// state, so the hosted store runs without a device store attached.
	var store plan.Store = hosted.New(db, nil)

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		store = cached.New(store, rdb, cfg.Redis.TTL)

		slog.Info("totals cache enabled", "addr", cfg.Redis.Addr)
	}

	router := payplanHttp.New(plansHandler.NewHandler(store), cfg.Auth.JWTSecret)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
