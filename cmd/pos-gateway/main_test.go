package main

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/comanda/internal/pkg/interceptors"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
)

func TestLoadConfig_BackendsDefaultToInProcess(t *testing.T) {
	t.Setenv("LEDGER_URL", "")
	t.Setenv("BOARD_URL", "")

	cfg := loadConfig()

	assert.Empty(t, cfg.LedgerURL)
	assert.Empty(t, cfg.BoardURL)
}

func TestNewBoard_InProcessWithoutURL(t *testing.T) {
	brd := newBoard(Config{BoardTimeout: time.Second})

	_, forcer := brd.(ports.PaymentForcer)
	require.True(t, forcer)

	ctx := interceptors.WithIdempotencyKey(context.Background(), "pay-1:abc")
	p := order.Payload{Item: "1x Burger", Quantity: 1, Price: decimal.RequireFromString("15")}
	first, err := brd.CreatePending(ctx, p)
	require.NoError(t, err)
	second, err := brd.CreatePending(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, first.Order.ID, second.Order.ID)

	paid, err := brd.(ports.PaymentForcer).MarkPaid(ctx, first.Order.ID)
	require.NoError(t, err)
	assert.True(t, paid.OK)
}

func TestNewBoard_RemoteWithURL(t *testing.T) {
	brd := newBoard(Config{BoardURL: "http://127.0.0.1:1", BoardTimeout: 100 * time.Millisecond})

	_, err := brd.CreatePending(context.Background(), order.Payload{Item: "x", Quantity: 1})

	assert.Error(t, err)
}
