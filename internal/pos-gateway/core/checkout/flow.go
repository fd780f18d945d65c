// Package checkout implements the two-step payment flow of a session:
// pick a method, then create the order and start payment collection.
//
//	idle -> selecting -> confirming -> result -> idle
//
// Close returns to idle from any state and Back returns from result to
// selecting. A Flow is owned by one session and is not safe for concurrent
// use.
package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/comanda/internal/coordinator"
	"github.com/jcmexdev/comanda/internal/coordinator/flowlog"
	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/cart"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
)

type Config struct {
	// QRAsset is the static image shown for qr payments.
	QRAsset string

	// DevPayments enables MarkPaid.
	DevPayments bool

	// StepTimeout bounds each backend call. Zero means no extra bound.
	StepTimeout time.Duration

	FlowLog flowlog.Repository
	Logger  *slog.Logger
}

type Flow struct {
	cart    *cart.Cart
	board   ports.Board
	cfg     Config
	step    Step
	session *PaymentSession
	newID   func() string

	// mu, when set, is held by the caller of every method and released
	// around backend calls.
	mu sync.Locker
}

func NewFlow(c *cart.Cart, board ports.Board, cfg Config) *Flow {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Flow{
		cart:  c,
		board: board,
		cfg:   cfg,
		step:  StepIdle,
		newID: uuid.NewString,
	}
}

// SetLocker names the lock the caller holds while using f, so backend calls
// can run without it.
func (f *Flow) SetLocker(mu sync.Locker) { f.mu = mu }

func (f *Flow) Step() Step { return f.step }

func (f *Flow) View() View {
	return View{Step: f.step, Session: f.session.clone()}
}

// Open starts a new payment session, discarding any previous one.
func (f *Flow) Open() (View, error) {
	if f.step == StepConfirming {
		return f.View(), ErrIllegalTransition
	}
	if f.cart.IsEmpty() {
		return f.View(), apperr.Validation(apperr.ErrMsgCartEmpty)
	}

	f.session = &PaymentSession{ID: f.newID(), Step: StepSelecting}
	f.step = StepSelecting
	return f.View(), nil
}

// Confirm creates the order on the board and starts checkout for it. A
// validation error or a failed order creation leaves the flow in selecting
// with the cart untouched. A failed checkout start does not: the flow moves
// to result and the failure is reported in Result.CheckoutError.
func (f *Flow) Confirm(ctx context.Context, sel Selection) (View, error) {
	if f.step != StepSelecting || f.session == nil {
		return f.View(), ErrIllegalTransition
	}

	method, err := sel.validate()
	if err != nil {
		return f.fail(err)
	}

	payload, err := f.payload(sel.Notes)
	if err != nil {
		return f.fail(err)
	}
	key := orderKey(f.session.ID, payload)

	s := f.session
	s.Method = method
	s.WithInvoice = sel.WithInvoice
	s.NIT = sel.NIT
	s.RazonSocial = sel.RazonSocial
	s.Error = ""
	f.setStep(StepConfirming)

	create := coordinator.NewCreateOrderStep(f.board, payload, key)
	initiate := coordinator.NewInitiateCheckoutStep(f.board, create, ports.CheckoutRequest{
		PaymentMethod: string(method),
		WithInvoice:   sel.WithInvoice,
		NIT:           sel.NIT,
		RazonSocial:   sel.RazonSocial,
	})

	orchestrator := coordinator.NewOrchestrator(s.ID, []coordinator.Step{create, initiate},
		coordinator.WithFlowLog(f.cfg.FlowLog),
		coordinator.WithStepTimeout(f.cfg.StepTimeout),
		coordinator.WithLogger(f.cfg.Logger),
	)
	var report coordinator.Report
	f.unlocked(func() {
		report, err = orchestrator.Start(ctx)
	})
	if err != nil {
		f.setStep(StepSelecting)
		return f.fail(err)
	}

	s.OrderID = report.OrderID
	s.payload = &payload
	s.Result = f.render(method, payload, report, initiate.Reply())
	f.cart.Clear()
	f.setStep(StepResult)

	f.cfg.Logger.InfoContext(ctx, "checkout confirmed",
		"session_id", s.ID,
		"order_id", s.OrderID,
		"method", method,
		"checkout_ok", s.Result.CheckoutOK,
	)
	return f.View(), nil
}

// Back leaves the result screen for the method screen of the same session.
func (f *Flow) Back() (View, error) {
	if f.step != StepResult {
		return f.View(), ErrIllegalTransition
	}
	f.session.Result = nil
	f.setStep(StepSelecting)
	return f.View(), nil
}

func (f *Flow) Close() View {
	f.session = nil
	f.step = StepIdle
	return f.View()
}

// MarkPaid forces the current order to paid on boards that support it.
func (f *Flow) MarkPaid(ctx context.Context) (View, error) {
	forcer, ok := f.board.(ports.PaymentForcer)
	if !f.cfg.DevPayments || !ok {
		return f.View(), ErrMockPaymentsDisabled
	}
	if f.session == nil {
		return f.View(), apperr.Validation(apperr.ErrMsgNoActiveSession)
	}
	if f.session.OrderID == "" {
		return f.View(), apperr.Validation(apperr.ErrMsgNoOrderForSession)
	}
	if f.step != StepResult {
		return f.View(), ErrIllegalTransition
	}

	if f.cfg.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.StepTimeout)
		defer cancel()
	}

	var (
		reply ports.Reply
		err   error
	)
	orderID := f.session.OrderID
	f.unlocked(func() {
		reply, err = forcer.MarkPaid(ctx, orderID)
	})
	if err != nil {
		if _, classified := apperr.KindOf(err); !classified {
			err = apperr.Transport(apperr.ErrMsgUnreachable, err)
		}
		return f.View(), err
	}
	if !reply.OK {
		msg := reply.Error
		if msg == "" {
			msg = apperr.ErrMsgUnknownError
		}
		return f.View(), apperr.Business(msg)
	}

	if f.session != nil && f.session.Result != nil && f.session.OrderID == orderID {
		f.session.Result.Paid = true
	}
	return f.View(), nil
}

// payload snapshots the cart, or reuses the order of a session that already
// went through Confirm once. The order's notes cannot change after that;
// blank notes mean "keep".
func (f *Flow) payload(notes string) (order.Payload, error) {
	if p := f.session.payload; p != nil {
		if n := strings.TrimSpace(notes); n != "" && n != p.Notes {
			return order.Payload{}, apperr.Validation(apperr.ErrMsgNotesLocked)
		}
		return *p, nil
	}
	return order.Build(f.cart, order.OrderSeparator, strings.TrimSpace(notes))
}

// orderKey is the idempotency key of order creation. It covers the payload
// so a retry after the cart changed creates a new order instead of resolving
// to the one stored by an earlier attempt.
func orderKey(sessionID string, p order.Payload) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		p.Item, strconv.Itoa(p.Quantity), p.PriceString(), p.Notes,
	}, "\x00")))
	return sessionID + ":" + hex.EncodeToString(sum[:8])
}

// unlocked runs fn without the caller's lock.
func (f *Flow) unlocked(fn func()) {
	if f.mu == nil {
		fn()
		return
	}
	f.mu.Unlock()
	defer f.mu.Lock()
	fn()
}

func (f *Flow) render(method Method, p order.Payload, report coordinator.Report, reply ports.CheckoutReply) *Result {
	res := &Result{
		Method:     method,
		OrderID:    report.OrderID,
		Amount:     p.Price,
		CheckoutOK: len(report.Skipped) == 0,
	}
	if !res.CheckoutOK {
		res.CheckoutError = report.Skipped[0].Err.Error()
	}

	switch method {
	case MethodQR:
		res.QRAsset = f.cfg.QRAsset
	case MethodCard:
		res.Reference = report.OrderID
	case MethodCash:
		if reply.Voucher != nil {
			res.Voucher = &Voucher{Code: reply.Voucher.Code, ExpiresAt: reply.Voucher.ExpiresAt}
		}
	}
	return res
}

func (f *Flow) fail(err error) (View, error) {
	if f.session != nil {
		f.session.Error = err.Error()
	}
	return f.View(), err
}

func (f *Flow) setStep(s Step) {
	f.step = s
	if f.session != nil {
		f.session.Step = s
	}
}
