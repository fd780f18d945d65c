package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/comanda/internal/board-service/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var ts = time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

func order(id, item string) domain.Order {
	return domain.Order{ID: id, TS: ts, Item: item, Quantity: 2, Notes: "sin hielo", Price: decimal.RequireFromString("30.50")}
}

func TestStore_OrdersFIFO(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for _, o := range []domain.Order{order("b2", "Soda"), order("a1", "Burger"), order("c3", "Fries")} {
		require.NoError(t, s.CreateOrder(ctx, o))
	}

	require.NoError(t, s.MarkDelivered(ctx, "a1", ts.Add(time.Minute)))

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "b2", pending[0].ID)
	assert.Equal(t, "c3", pending[1].ID)
	assert.True(t, pending[0].Price.Equal(decimal.RequireFromString("30.5")))
	assert.Equal(t, ts, pending[0].TS)

	got, err := s.GetOrder(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, got.Delivered)
	assert.Equal(t, ts.Add(time.Minute), got.DeliveredAt)
}

func TestStore_MarkDeliveredTwice(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, order("a1", "Burger")))

	require.NoError(t, s.MarkDelivered(ctx, "a1", ts))
	assert.ErrorIs(t, s.MarkDelivered(ctx, "a1", ts), domain.ErrNotFound)
	assert.ErrorIs(t, s.MarkDelivered(ctx, "zz", ts), domain.ErrNotFound)
}

func TestStore_GetOrderNotFound(t *testing.T) {
	_, err := openStore(t).GetOrder(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_PaymentUpsert(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, order("a1", "Burger")))

	p := domain.Payment{
		ID:        "a1",
		OrderID:   "a1",
		Method:    domain.MethodCash,
		Amount:    decimal.RequireFromString("30.50"),
		Status:    domain.PaymentPending,
		Voucher:   &domain.Voucher{Code: "ABCD1234", ExpiresAt: ts.Add(15 * time.Minute)},
		CreatedAt: ts,
	}
	require.NoError(t, s.SavePayment(ctx, p))

	got, err := s.GetPayment(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, got.Voucher)
	assert.Equal(t, "ABCD1234", got.Voucher.Code)
	assert.Equal(t, ts.Add(15*time.Minute), got.Voucher.ExpiresAt)
	assert.True(t, got.PaidAt.IsZero())

	p.Method = domain.MethodQR
	p.Voucher = nil
	p.WithInvoice, p.NIT, p.RazonSocial = true, "123", "ACME"
	p.Status = domain.PaymentPaid
	p.PaidAt = ts.Add(time.Hour)
	require.NoError(t, s.SavePayment(ctx, p))

	got, err = s.GetPayment(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.MethodQR, got.Method)
	assert.Nil(t, got.Voucher)
	assert.True(t, got.WithInvoice)
	assert.Equal(t, "ACME", got.RazonSocial)
	assert.Equal(t, domain.PaymentPaid, got.Status)
	assert.Equal(t, ts.Add(time.Hour), got.PaidAt)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateOrder(ctx, order("a1", "Burger")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestStore_GetPaymentNotFound(t *testing.T) {
	_, err := openStore(t).GetPayment(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
