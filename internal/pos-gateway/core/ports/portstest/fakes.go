// Package portstest provides scripted fakes of the gateway ports for tests.
package portstest

import (
	"context"
	"sync"

	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
)

// Ledger replies with Reply/Err and records every call. Panic makes Record
// panic after recording.
type Ledger struct {
	mu       sync.Mutex
	Reply    ports.LedgerReply
	Err      error
	Panic    bool
	Recorded []order.Payload
	Closings int
}

func (l *Ledger) Record(_ context.Context, p order.Payload) (ports.LedgerReply, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Recorded = append(l.Recorded, p)
	if l.Panic {
		panic("ledger adapter failure")
	}
	return l.Reply, l.Err
}

func (l *Ledger) CloseDay(context.Context) (ports.LedgerReply, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Closings++
	return l.Reply, l.Err
}

func (l *Ledger) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Recorded) + l.Closings
}

// Board replies with the configured values, records calls and, when Notify
// is set, sends every CreatePending payload to it.
type Board struct {
	mu sync.Mutex

	PendingReply  ports.PendingReply
	PendingErr    error
	CheckoutReply ports.CheckoutReply
	CheckoutErr   error
	PaidReply     ports.Reply
	PaidErr       error
	Panic         bool

	Notify chan order.Payload

	Created      []order.Payload
	CreateCtxErr []error
	Checkouts    []ports.CheckoutRequest
	MarkedPaid   []string
}

func (b *Board) CreatePending(ctx context.Context, p order.Payload) (ports.PendingReply, error) {
	b.mu.Lock()
	b.Created = append(b.Created, p)
	b.CreateCtxErr = append(b.CreateCtxErr, ctx.Err())
	reply, err, panics, notify := b.PendingReply, b.PendingErr, b.Panic, b.Notify
	b.mu.Unlock()

	if notify != nil {
		notify <- p
	}
	if panics {
		panic("board exploded")
	}
	return reply, err
}

func (b *Board) Checkout(_ context.Context, req ports.CheckoutRequest) (ports.CheckoutReply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Checkouts = append(b.Checkouts, req)
	return b.CheckoutReply, b.CheckoutErr
}

func (b *Board) MarkPaid(_ context.Context, paymentID string) (ports.Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.MarkedPaid = append(b.MarkedPaid, paymentID)
	return b.PaidReply, b.PaidErr
}

// Calls reports how many network calls the board received.
func (b *Board) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Created) + len(b.Checkouts) + len(b.MarkedPaid)
}

func (b *Board) CreatedPayloads() []order.Payload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]order.Payload(nil), b.Created...)
}

var (
	_ ports.Ledger        = (*Ledger)(nil)
	_ ports.Board         = (*Board)(nil)
	_ ports.PaymentForcer = (*Board)(nil)
)
