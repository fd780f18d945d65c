package board

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
)

const errMsgBoardUnavailable = "board unavailable"

type BreakerConfig struct {
	Name string

	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32

	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "board",
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

type guarded struct {
	next ports.Board
	cb   *gobreaker.CircuitBreaker[any]
}

type guardedForcer struct {
	*guarded
	forcer ports.PaymentForcer
}

// Guard wraps next in a circuit breaker so a board outage fails fast instead
// of holding every checkout for the full timeout. Only transport failures
// count against the breaker. The result implements ports.PaymentForcer when
// next does.
func Guard(next ports.Board, cfg BreakerConfig) ports.Board {
	g := &guarded{
		next: next,
		cb: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: 1,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !apperr.IsTransport(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
	if f, ok := next.(ports.PaymentForcer); ok {
		return &guardedForcer{guarded: g, forcer: f}
	}
	return g
}

func (g *guarded) CreatePending(ctx context.Context, p order.Payload) (ports.PendingReply, error) {
	return execute(g.cb, func() (ports.PendingReply, error) {
		return g.next.CreatePending(ctx, p)
	})
}

func (g *guarded) Checkout(ctx context.Context, req ports.CheckoutRequest) (ports.CheckoutReply, error) {
	return execute(g.cb, func() (ports.CheckoutReply, error) {
		return g.next.Checkout(ctx, req)
	})
}

func (g *guardedForcer) MarkPaid(ctx context.Context, paymentID string) (ports.Reply, error) {
	return execute(g.cb, func() (ports.Reply, error) {
		return g.forcer.MarkPaid(ctx, paymentID)
	})
}

func execute[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T
	out, err := cb.Execute(func() (any, error) {
		v, err := fn()
		return v, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, apperr.Transport(errMsgBoardUnavailable, err)
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}
