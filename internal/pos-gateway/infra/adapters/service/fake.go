package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/comanda/internal/pkg/interceptors"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
)

// Ensure the fakes implement the ports at compile time.
var (
	_ ports.Ledger        = (*fakeLedger)(nil)
	_ ports.Board         = (*fakeBoard)(nil)
	_ ports.PaymentForcer = (*fakeBoard)(nil)
)

// fakeLedger is an in-memory ledger intended for local development only. It
// accepts every order and reports the running total on day closing.
type fakeLedger struct {
	mu    sync.Mutex
	total decimal.Decimal
}

// NewFakeLedger returns an in-memory Ledger for development.
func NewFakeLedger() ports.Ledger {
	return &fakeLedger{}
}

func (f *fakeLedger) Record(ctx context.Context, p order.Payload) (ports.LedgerReply, error) {
	f.mu.Lock()
	f.total = f.total.Add(p.Price)
	f.mu.Unlock()

	slog.InfoContext(ctx, "fake ledger recorded order", "item", p.Item, "price", p.PriceString())
	return ports.LedgerReply{OK: true, Message: "recorded"}, nil
}

func (f *fakeLedger) CloseDay(ctx context.Context) (ports.LedgerReply, error) {
	f.mu.Lock()
	total := f.total
	f.total = decimal.Zero
	f.mu.Unlock()

	return ports.LedgerReply{OK: true, Total: decimal.NewNullDecimal(total)}, nil
}

// fakeBoard is an in-memory board for local development only. Like the
// board service it answers a repeated idempotency key with the same order.
type fakeBoard struct {
	mu       sync.Mutex
	orders   map[string]order.Payload
	keys     map[string]string
	vouchers map[string]ports.Voucher
}

// NewFakeBoard returns an in-memory Board for development.
func NewFakeBoard() ports.Board {
	return &fakeBoard{
		orders:   make(map[string]order.Payload),
		keys:     make(map[string]string),
		vouchers: make(map[string]ports.Voucher),
	}
}

func (f *fakeBoard) CreatePending(ctx context.Context, p order.Payload) (ports.PendingReply, error) {
	key := interceptors.IdempotencyKey(ctx)

	f.mu.Lock()
	id, seen := f.keys[key]
	if !seen || key == "" {
		id = shortID()
		f.orders[id] = p
		if key != "" {
			f.keys[key] = id
		}
	}
	p = f.orders[id]
	f.mu.Unlock()

	return ports.PendingReply{OK: true, Order: &ports.BoardOrder{
		ID:       id,
		TS:       time.Now().UTC().Format(time.RFC3339),
		Item:     p.Item,
		Quantity: p.Quantity,
	}}, nil
}

func (f *fakeBoard) Checkout(ctx context.Context, req ports.CheckoutRequest) (ports.CheckoutReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.orders[req.OrderID]; !ok {
		return ports.CheckoutReply{OK: false, Error: "order not found"}, nil
	}
	if req.PaymentMethod != "cash" {
		return ports.CheckoutReply{OK: true}, nil
	}

	v, ok := f.vouchers[req.OrderID]
	if !ok {
		v = ports.Voucher{
			Code:      strings.ToUpper(shortID()),
			ExpiresAt: time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
		}
		f.vouchers[req.OrderID] = v
	}
	return ports.CheckoutReply{OK: true, Voucher: &v}, nil
}

func (f *fakeBoard) MarkPaid(ctx context.Context, paymentID string) (ports.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.orders[paymentID]; !ok {
		return ports.Reply{OK: false, Error: "payment not found"}, nil
	}
	return ports.Reply{OK: true}, nil
}

// shortID mirrors the board's 8-hex order ids.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
