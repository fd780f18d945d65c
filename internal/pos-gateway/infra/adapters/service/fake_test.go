package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/comanda/internal/pkg/interceptors"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
)

func TestFakeLedger_ClosingReportsAndResetsTotal(t *testing.T) {
	l := NewFakeLedger()
	ctx := context.Background()

	_, _ = l.Record(ctx, order.Payload{Item: "a", Quantity: 1, Price: decimal.RequireFromString("10.5")})
	_, _ = l.Record(ctx, order.Payload{Item: "b", Quantity: 1, Price: decimal.RequireFromString("4.5")})

	reply, err := l.CloseDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, "15.00", reply.Total.Decimal.StringFixed(2))

	reply, _ = l.CloseDay(ctx)
	assert.True(t, reply.Total.Decimal.IsZero())
}

func TestFakeBoard_CashCheckoutIsStable(t *testing.T) {
	b := NewFakeBoard()
	ctx := context.Background()

	created, err := b.CreatePending(ctx, order.Payload{Item: "1x Burger", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, created.Order.ID, 8)

	first, err := b.Checkout(ctx, ports.CheckoutRequest{OrderID: created.Order.ID, PaymentMethod: "cash"})
	require.NoError(t, err)
	second, _ := b.Checkout(ctx, ports.CheckoutRequest{OrderID: created.Order.ID, PaymentMethod: "cash"})

	require.NotNil(t, first.Voucher)
	assert.Equal(t, first.Voucher.Code, second.Voucher.Code)

	paid, _ := b.(ports.PaymentForcer).MarkPaid(ctx, created.Order.ID)
	assert.True(t, paid.OK)
}

func TestFakeBoard_SameKeySameOrder(t *testing.T) {
	b := NewFakeBoard()
	ctx := interceptors.WithIdempotencyKey(context.Background(), "pay-1:aa")

	first, err := b.CreatePending(ctx, order.Payload{Item: "1x Burger", Quantity: 1})
	require.NoError(t, err)
	again, err := b.CreatePending(ctx, order.Payload{Item: "1x Burger", Quantity: 1})
	require.NoError(t, err)
	other, err := b.CreatePending(interceptors.WithIdempotencyKey(context.Background(), "pay-1:bb"), order.Payload{Item: "2x Burger", Quantity: 2})
	require.NoError(t, err)
	unkeyed, err := b.CreatePending(context.Background(), order.Payload{Item: "1x Burger", Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, first.Order.ID, again.Order.ID)
	assert.NotEqual(t, first.Order.ID, other.Order.ID)
	assert.NotEqual(t, first.Order.ID, unkeyed.Order.ID)
	assert.Equal(t, 2, other.Order.Quantity)
}

func TestFakeBoard_UnknownOrder(t *testing.T) {
	b := NewFakeBoard()

	reply, err := b.Checkout(context.Background(), ports.CheckoutRequest{OrderID: "nope", PaymentMethod: "qr"})

	require.NoError(t, err)
	assert.False(t, reply.OK)
}
