package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jcmexdev/comanda/internal/board-service/adapters/httpx"
	"github.com/jcmexdev/comanda/internal/board-service/adapters/memory"
	"github.com/jcmexdev/comanda/internal/board-service/adapters/sqlite"
	"github.com/jcmexdev/comanda/internal/board-service/app"
	"github.com/jcmexdev/comanda/internal/pkg/cache"
	"github.com/jcmexdev/comanda/internal/pkg/telemetry"
)

func main() {
	cfg := loadConfig()
	telemetry.InitLogger(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName)
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	var store app.Store
	if cfg.DBPath == ":memory:" {
		slog.Warn("BOARD_DB_PATH is :memory:, orders are lost on restart")
		store = memory.NewStore()
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			slog.Error("failed to create data dir", "path", cfg.DBPath, "error", err)
			os.Exit(1)
		}
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open board store", "path", cfg.DBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	}

	var c cache.Cache
	if cfg.RedisAddr == "" {
		c = cache.NewBoundedMemoryCache("board", cfg.CacheSize, max(cache.DefaultMemoryMaxTTL, cfg.VoucherTTL))
	} else {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		c = cache.NewRedisCache(client, "board")
	}

	svc := app.NewService(store, c, app.Config{
		VoucherTTL:  cfg.VoucherTTL,
		DevPayments: cfg.DevPayments,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpx.NewRouter(httpx.NewHandler(svc), 10*time.Second),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("board service running", "addr", srv.Addr, "db", cfg.DBPath, "dev_payments", cfg.DevPayments)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down board service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
}
