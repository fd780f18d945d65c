// Package dispatch delivers an order payload to the ledger, which decides the
// outcome, and then to the board as a best-effort side channel.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pkg/interceptors"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/cart"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
)

const (
	defaultLedgerTimeout = 15 * time.Second
	defaultNotifyTimeout = 5 * time.Second
)

// Result is the normalized outcome of a ledger call. Err carries the
// classified failure for callers that map it to a status code.
type Result struct {
	OK      bool                `json:"ok"`
	Error   string              `json:"error,omitempty"`
	Message string              `json:"message,omitempty"`
	Total   decimal.NullDecimal `json:"total"`
	Err     error               `json:"-"`
}

func failure(err error) Result {
	return Result{OK: false, Error: err.Error(), Err: err}
}

type Dispatcher struct {
	ledger        ports.Ledger
	board         ports.Board
	sink          Sink
	ledgerTimeout time.Duration
	notifyTimeout time.Duration
	logger        *slog.Logger

	pending sync.WaitGroup
}

type Option func(*Dispatcher)

func WithSink(s Sink) Option {
	return func(d *Dispatcher) { d.sink = s }
}

func WithLedgerTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.ledgerTimeout = t }
}

func WithNotifyTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.notifyTimeout = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func New(ledger ports.Ledger, board ports.Board, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		ledger:        ledger,
		board:         board,
		ledgerTimeout: defaultLedgerTimeout,
		notifyTimeout: defaultNotifyTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sink == nil {
		d.sink = NewLogSink(d.logger)
	}
	return d
}

// Submit validates p, records it in the ledger and then notifies the board
// without waiting for it. The returned Result reflects the ledger only.
func (d *Dispatcher) Submit(ctx context.Context, p order.Payload) Result {
	if err := order.Validate(p); err != nil {
		return failure(err)
	}

	res := d.record(ctx, p)
	d.notify(ctx, p)
	return res
}

// SubmitCart builds the ledger payload from c and clears c once the ledger
// accepted it. mu, when not nil, guards c and is held only while reading
// and clearing it, never across the backend calls.
func (d *Dispatcher) SubmitCart(ctx context.Context, c *cart.Cart, notes string, mu sync.Locker) Result {
	if mu == nil {
		mu = noLock{}
	}

	mu.Lock()
	p, err := order.Build(c, order.LedgerSeparator, notes)
	mu.Unlock()
	if err != nil {
		return failure(err)
	}

	res := d.Submit(ctx, p)
	if res.OK {
		mu.Lock()
		c.Clear()
		mu.Unlock()
	}
	return res
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

// CloseDay asks the ledger to close the business day and reports its total.
func (d *Dispatcher) CloseDay(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, d.ledgerTimeout)
	defer cancel()

	reply, err := d.ledger.CloseDay(ctx)
	res := normalize(reply, err)
	if !res.OK {
		d.logger.WarnContext(ctx, "day closing rejected", "error", res.Error)
		return res
	}
	d.logger.InfoContext(ctx, "day closed", "total", reply.Total.Decimal.StringFixed(2))
	return res
}

// Wait blocks until every in-flight board notification has finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

func (d *Dispatcher) record(ctx context.Context, p order.Payload) (res Result) {
	ctx, cancel := context.WithTimeout(ctx, d.ledgerTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "ledger write panicked", "panic", r, "item", p.Item)
			res = failure(apperr.Transport(apperr.ErrMsgUnreachable, fmt.Errorf("ledger adapter panic: %v", r)))
		}
	}()

	reply, err := d.ledger.Record(ctx, p)
	res = normalize(reply, err)
	if !res.OK {
		d.logger.WarnContext(ctx, "ledger write failed",
			"item", p.Item,
			"quantity", p.Quantity,
			"error", res.Error,
		)
		return res
	}
	d.logger.InfoContext(ctx, "ledger write ok",
		"item", p.Item,
		"quantity", p.Quantity,
		"price", p.PriceString(),
	)
	return res
}

func (d *Dispatcher) notify(ctx context.Context, p order.Payload) {
	ctx = context.WithoutCancel(ctx)
	key := uuid.NewString()

	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.ErrorContext(ctx, "board notify panicked", "panic", r, "idempotency_key", key)
			}
		}()

		nctx, cancel := context.WithTimeout(interceptors.WithIdempotencyKey(ctx, key), d.notifyTimeout)
		defer cancel()

		start := time.Now()
		reply, err := d.board.CreatePending(nctx, p)
		if err == nil && !reply.OK {
			err = apperr.Business(replyText(reply.Error, ""))
		}
		d.sink.Observe(ctx, Notification{
			Payload:        p,
			IdempotencyKey: key,
			Reply:          reply,
			Err:            err,
			Elapsed:        time.Since(start),
		})
	}()
}

// normalize folds a ledger reply and transport error into a Result. It never
// lets an error escape.
func normalize(reply ports.LedgerReply, err error) Result {
	if err != nil {
		var ae *apperr.Error
		if !errors.As(err, &ae) {
			err = apperr.Transport(apperr.ErrMsgUnreachable, err)
		}
		return failure(err)
	}
	if !reply.OK {
		return failure(apperr.Business(replyText(reply.Error, reply.Message)))
	}
	return Result{OK: true, Message: reply.Message, Total: reply.Total}
}

func replyText(errText, message string) string {
	if s := strings.TrimSpace(errText); s != "" {
		return s
	}
	if s := strings.TrimSpace(message); s != "" {
		return s
	}
	return apperr.ErrMsgUnknownError
}
