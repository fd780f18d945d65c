package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/comanda/internal/board-service/domain"
)

func TestStore_PendingOrder(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, s.CreateOrder(ctx, domain.Order{ID: id, Item: "Soda", Quantity: 1}))
	}
	require.NoError(t, s.MarkDelivered(ctx, "a", time.Now()))
	assert.ErrorIs(t, s.MarkDelivered(ctx, "a", time.Now()), domain.ErrNotFound)

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "b", pending[0].ID)
	assert.Equal(t, "c", pending[1].ID)
}

func TestStore_PaymentIsCopied(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := domain.Payment{ID: "a", Voucher: &domain.Voucher{Code: "AAAA0000"}}
	require.NoError(t, s.SavePayment(ctx, p))

	p.Voucher.Code = "changed"
	got, err := s.GetPayment(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "AAAA0000", got.Voucher.Code)

	_, err = s.GetPayment(ctx, "zz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
