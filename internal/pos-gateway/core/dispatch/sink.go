package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
)

// Notification is the eventual outcome of a board notify.
type Notification struct {
	Payload        order.Payload
	IdempotencyKey string
	Reply          ports.PendingReply
	Err            error
	Elapsed        time.Duration
}

// Sink receives notification outcomes. It is the only place they go.
type Sink interface {
	Observe(ctx context.Context, n Notification)
}

type SinkFunc func(ctx context.Context, n Notification)

func (f SinkFunc) Observe(ctx context.Context, n Notification) { f(ctx, n) }

type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Observe(ctx context.Context, n Notification) {
	if n.Err != nil {
		s.logger.WarnContext(ctx, "board notify failed",
			"item", n.Payload.Item,
			"idempotency_key", n.IdempotencyKey,
			"elapsed", n.Elapsed,
			"error", n.Err,
		)
		return
	}

	orderID := ""
	if n.Reply.Order != nil {
		orderID = n.Reply.Order.ID
	}
	s.logger.InfoContext(ctx, "board notified",
		"item", n.Payload.Item,
		"order_id", orderID,
		"elapsed", n.Elapsed,
	)
}
