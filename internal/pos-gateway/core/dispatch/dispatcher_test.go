package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/cart"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports/portstest"
)

type channelSink chan Notification

func (c channelSink) Observe(_ context.Context, n Notification) { c <- n }

func newTestDispatcher(ledger ports.Ledger, board ports.Board, sink Sink) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []Option{WithLogger(logger), WithNotifyTimeout(time.Second), WithLedgerTimeout(time.Second)}
	if sink != nil {
		opts = append(opts, WithSink(sink))
	}
	return New(ledger, board, opts...)
}

func samplePayload() order.Payload {
	return order.Payload{Item: "2x Burger", Quantity: 2, Price: decimal.RequireFromString("30"), Notes: "no onion"}
}

func TestSubmit_LedgerOKNotifiesBoard(t *testing.T) {
	ledger := &portstest.Ledger{Reply: ports.LedgerReply{OK: true, Message: "saved"}}
	board := &portstest.Board{PendingReply: ports.PendingReply{OK: true, Order: &ports.BoardOrder{ID: "a1b2c3d4"}}}
	sink := make(channelSink, 1)
	d := newTestDispatcher(ledger, board, sink)

	res := d.Submit(context.Background(), samplePayload())

	assert.True(t, res.OK)
	assert.Equal(t, "saved", res.Message)
	require.Len(t, ledger.Recorded, 1)
	assert.Equal(t, "2x Burger", ledger.Recorded[0].Item)

	n := <-sink
	require.NoError(t, n.Err)
	assert.Equal(t, "a1b2c3d4", n.Reply.Order.ID)
	assert.NotEmpty(t, n.IdempotencyKey)
	assert.Equal(t, samplePayload().Item, n.Payload.Item)
}

func TestSubmit_InvalidPayloadNeverReachesNetwork(t *testing.T) {
	ledger := &portstest.Ledger{Reply: ports.LedgerReply{OK: true}}
	board := &portstest.Board{}
	d := newTestDispatcher(ledger, board, nil)

	res := d.Submit(context.Background(), order.Payload{Item: "  ", Quantity: 1})
	d.Wait()

	assert.False(t, res.OK)
	assert.True(t, apperr.IsValidation(res.Err))
	assert.Equal(t, apperr.ErrMsgItemRequired, res.Error)
	assert.Zero(t, ledger.Calls())
	assert.Zero(t, board.Calls())
}

func TestSubmit_LedgerTransportErrorIsNormalized(t *testing.T) {
	ledger := &portstest.Ledger{Err: errors.New("connection refused")}
	board := &portstest.Board{PendingReply: ports.PendingReply{OK: true}}
	sink := make(channelSink, 1)
	d := newTestDispatcher(ledger, board, sink)

	res := d.Submit(context.Background(), samplePayload())

	assert.False(t, res.OK)
	assert.True(t, apperr.IsTransport(res.Err))
	assert.Contains(t, res.Error, "connection refused")

	// the board is still told about the order
	n := <-sink
	assert.NoError(t, n.Err)
}

func TestSubmit_LedgerRejectionText(t *testing.T) {
	tests := []struct {
		name  string
		reply ports.LedgerReply
		want  string
	}{
		{"error wins", ports.LedgerReply{Error: "sheet locked", Message: "ignored"}, "sheet locked"},
		{"message fallback", ports.LedgerReply{Message: "quota exceeded"}, "quota exceeded"},
		{"generic fallback", ports.LedgerReply{}, apperr.ErrMsgUnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(&portstest.Ledger{Reply: tt.reply}, &portstest.Board{}, nil)
			res := d.Submit(context.Background(), samplePayload())
			d.Wait()

			assert.False(t, res.OK)
			assert.Equal(t, tt.want, res.Error)
			assert.True(t, apperr.IsBusiness(res.Err))
		})
	}
}

func TestSubmit_BoardFailureDoesNotAlterResult(t *testing.T) {
	tests := []struct {
		name  string
		board *portstest.Board
	}{
		{"transport", &portstest.Board{PendingErr: errors.New("board down")}},
		{"rejected", &portstest.Board{PendingReply: ports.PendingReply{OK: false, Error: "full"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := make(channelSink, 1)
			d := newTestDispatcher(&portstest.Ledger{Reply: ports.LedgerReply{OK: true}}, tt.board, sink)

			res := d.Submit(context.Background(), samplePayload())
			assert.True(t, res.OK)
			assert.Empty(t, res.Error)

			n := <-sink
			assert.Error(t, n.Err)
		})
	}
}

func TestSubmit_LedgerAndBoardBothRejected(t *testing.T) {
	ledger := &portstest.Ledger{Reply: ports.LedgerReply{OK: false, Error: "ledger said no"}}
	board := &portstest.Board{PendingErr: errors.New("board down")}
	sink := make(channelSink, 1)
	d := newTestDispatcher(ledger, board, sink)

	res := d.Submit(context.Background(), samplePayload())
	<-sink

	assert.False(t, res.OK)
	assert.Equal(t, "ledger said no", res.Error)
}

func TestSubmit_BoardPanicIsRecovered(t *testing.T) {
	board := &portstest.Board{Panic: true}
	d := newTestDispatcher(&portstest.Ledger{Reply: ports.LedgerReply{OK: true}}, board, nil)

	res := d.Submit(context.Background(), samplePayload())
	d.Wait()

	assert.True(t, res.OK)
	assert.Equal(t, 1, board.Calls())
}

func TestSubmit_NotifyOutlivesCallerContext(t *testing.T) {
	board := &portstest.Board{PendingReply: ports.PendingReply{OK: true}}
	d := newTestDispatcher(&portstest.Ledger{Reply: ports.LedgerReply{OK: true}}, board, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Submit(ctx, samplePayload())
	d.Wait()

	require.Len(t, board.CreateCtxErr, 1)
	assert.NoError(t, board.CreateCtxErr[0])
}

func TestSubmitCart(t *testing.T) {
	t.Run("clears cart on success", func(t *testing.T) {
		ledger := &portstest.Ledger{Reply: ports.LedgerReply{OK: true}}
		d := newTestDispatcher(ledger, &portstest.Board{}, nil)
		c := cart.New()
		c.Add("Pollo", 2, decimal.RequireFromString("25"), []string{"arroz"})
		c.Add("Soda", 1, decimal.RequireFromString("5"), nil)

		res := d.SubmitCart(context.Background(), c, "mesa 4", nil)
		d.Wait()

		assert.True(t, res.OK)
		assert.True(t, c.IsEmpty())
		require.Len(t, ledger.Recorded, 1)
		p := ledger.Recorded[0]
		assert.Equal(t, "2x Pollo (arroz) • 1x Soda", p.Item)
		assert.Equal(t, 3, p.Quantity)
		assert.Equal(t, "55.00", p.PriceString())
		assert.Equal(t, "mesa 4", p.Notes)
	})

	t.Run("keeps cart on failure", func(t *testing.T) {
		ledger := &portstest.Ledger{Err: errors.New("timeout")}
		d := newTestDispatcher(ledger, &portstest.Board{}, nil)
		c := cart.New()
		c.Add("Pollo", 1, decimal.RequireFromString("25"), nil)

		res := d.SubmitCart(context.Background(), c, "", nil)
		d.Wait()

		assert.False(t, res.OK)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("empty cart fails validation", func(t *testing.T) {
		ledger := &portstest.Ledger{Reply: ports.LedgerReply{OK: true}}
		board := &portstest.Board{}
		d := newTestDispatcher(ledger, board, nil)

		res := d.SubmitCart(context.Background(), cart.New(), "", nil)
		d.Wait()

		assert.False(t, res.OK)
		assert.True(t, apperr.IsValidation(res.Err))
		assert.Zero(t, ledger.Calls())
		assert.Zero(t, board.Calls())
	})
}

func TestSubmitCart_ReleasesLockDuringLedgerWrite(t *testing.T) {
	var mu sync.Mutex
	var heldDuringWrite bool
	ledger := ledgerFunc(func(context.Context, order.Payload) (ports.LedgerReply, error) {
		if mu.TryLock() {
			mu.Unlock()
		} else {
			heldDuringWrite = true
		}
		return ports.LedgerReply{OK: true}, nil
	})
	d := newTestDispatcher(ledger, &portstest.Board{}, nil)
	c := cart.New()
	c.Add("Pollo", 1, decimal.RequireFromString("25"), nil)

	res := d.SubmitCart(context.Background(), c, "", &mu)
	d.Wait()

	assert.True(t, res.OK)
	assert.False(t, heldDuringWrite)
	assert.True(t, c.IsEmpty())
}

func TestSubmit_LedgerPanicBecomesTransportFailure(t *testing.T) {
	ledger := &portstest.Ledger{Panic: true}
	board := &portstest.Board{}
	d := newTestDispatcher(ledger, board, nil)

	var res Result
	require.NotPanics(t, func() { res = d.Submit(context.Background(), samplePayload()) })
	d.Wait()

	assert.False(t, res.OK)
	assert.True(t, apperr.IsTransport(res.Err))
	assert.Contains(t, res.Error, apperr.ErrMsgUnreachable)
	assert.Zero(t, board.Calls())
}

type ledgerFunc func(context.Context, order.Payload) (ports.LedgerReply, error)

func (f ledgerFunc) Record(ctx context.Context, p order.Payload) (ports.LedgerReply, error) {
	return f(ctx, p)
}

func (f ledgerFunc) CloseDay(context.Context) (ports.LedgerReply, error) {
	return ports.LedgerReply{OK: true}, nil
}

func TestCloseDay(t *testing.T) {
	ledger := &portstest.Ledger{Reply: ports.LedgerReply{
		OK:    true,
		Total: decimal.NewNullDecimal(decimal.RequireFromString("1234.5")),
	}}
	board := &portstest.Board{}
	d := newTestDispatcher(ledger, board, nil)

	res := d.CloseDay(context.Background())

	assert.True(t, res.OK)
	assert.True(t, res.Total.Valid)
	assert.Equal(t, "1234.50", res.Total.Decimal.StringFixed(2))
	assert.Equal(t, 1, ledger.Closings)
	assert.Zero(t, board.Calls())
}

func TestCloseDay_Rejected(t *testing.T) {
	d := newTestDispatcher(&portstest.Ledger{Reply: ports.LedgerReply{Message: "already closed"}}, &portstest.Board{}, nil)

	res := d.CloseDay(context.Background())

	assert.False(t, res.OK)
	assert.Equal(t, "already closed", res.Error)
}
