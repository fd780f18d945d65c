package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcmexdev/comanda/internal/coordinator/flowlog"
	flowlogsqlite "github.com/jcmexdev/comanda/internal/coordinator/flowlog/sqlite"
	"github.com/jcmexdev/comanda/internal/pkg/telemetry"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/checkout"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/dispatch"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/session"
	"github.com/jcmexdev/comanda/internal/pos-gateway/infra/adapters/board"
	"github.com/jcmexdev/comanda/internal/pos-gateway/infra/adapters/ledger"
	"github.com/jcmexdev/comanda/internal/pos-gateway/infra/adapters/service"
	"github.com/jcmexdev/comanda/internal/pos-gateway/infra/httpx"
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

	led := newLedger(cfg)

	brd := newBoard(cfg)

	var flowLog flowlog.Repository
	if cfg.FlowLogPath != "" {
		repo, err := flowlogsqlite.Open(cfg.FlowLogPath)
		if err != nil {
			slog.Error("failed to open flow log", "path", cfg.FlowLogPath, "error", err)
			os.Exit(1)
		}
		defer repo.Close()
		flowLog = repo
	}

	sessions := session.NewRegistry(brd, checkout.Config{
		QRAsset:     cfg.QRAsset,
		DevPayments: cfg.DevPayments,
		StepTimeout: cfg.BoardTimeout,
		FlowLog:     flowLog,
		Logger:      slog.Default(),
	}, cfg.SessionTTL)
	go sessions.RunReaper(ctx, time.Minute)

	dispatcher := dispatch.New(led, brd,
		dispatch.WithLedgerTimeout(cfg.LedgerTimeout),
		dispatch.WithNotifyTimeout(cfg.NotifyTimeout),
		dispatch.WithLogger(slog.Default()),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpx.NewRouter(httpx.NewHandler(sessions, dispatcher), cfg.LedgerTimeout+cfg.BoardTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("pos gateway running", "addr", srv.Addr, "ledger", cfg.LedgerURL, "board", cfg.BoardURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down pos gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	dispatcher.Wait()
}

func newLedger(cfg Config) ports.Ledger {
	if cfg.LedgerURL == "" {
		slog.Warn("LEDGER_URL not set, using in-process ledger")
		return service.NewFakeLedger()
	}
	return ledger.NewClient(cfg.LedgerURL, cfg.LedgerTimeout)
}

func newBoard(cfg Config) ports.Board {
	if cfg.BoardURL == "" {
		slog.Warn("BOARD_URL not set, using in-process board")
		return service.NewFakeBoard()
	}
	return board.Guard(board.NewClient(cfg.BoardURL, cfg.BoardTimeout), board.DefaultBreakerConfig())
}
