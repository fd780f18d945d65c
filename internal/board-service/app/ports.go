package app

import (
	"context"
	"time"

	"github.com/jcmexdev/comanda/internal/board-service/domain"
)

// Store persists orders and payments. Lookups of unknown ids return
// domain.ErrNotFound.
type Store interface {
	CreateOrder(ctx context.Context, o domain.Order) error
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListPending(ctx context.Context) ([]domain.Order, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	SavePayment(ctx context.Context, p domain.Payment) error
	GetPayment(ctx context.Context, id string) (domain.Payment, error)
}
