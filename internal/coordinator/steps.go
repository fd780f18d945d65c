package coordinator

import (
	"context"
	"strings"

	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pkg/interceptors"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
)

// --- CreateOrderStep ---

// CreateOrderStep hands the order to the board and keeps the id it assigns.
type CreateOrderStep struct {
	board          ports.Board
	payload        order.Payload
	idempotencyKey string
	orderID        string
}

func NewCreateOrderStep(board ports.Board, payload order.Payload, idempotencyKey string) *CreateOrderStep {
	return &CreateOrderStep{
		board:          board,
		payload:        payload,
		idempotencyKey: idempotencyKey,
	}
}

func (s *CreateOrderStep) Name() string   { return "create_order" }
func (s *CreateOrderStep) Required() bool { return true }
func (s *CreateOrderStep) OrderID() string {
	return s.orderID
}

func (s *CreateOrderStep) Execute(ctx context.Context) error {
	if s.idempotencyKey != "" {
		ctx = interceptors.WithIdempotencyKey(ctx, s.idempotencyKey)
	}

	res, err := s.board.CreatePending(ctx, s.payload)
	if err != nil {
		return asTransport(err)
	}
	if !res.OK {
		return apperr.Business(nonEmpty(res.Error))
	}
	if res.Order == nil || strings.TrimSpace(res.Order.ID) == "" {
		return apperr.Business(apperr.ErrMsgMissingOrderID)
	}
	s.orderID = res.Order.ID
	return nil
}

// --- InitiateCheckoutStep ---

// InitiateCheckoutStep starts payment collection for the order created by
// the preceding CreateOrderStep.
type InitiateCheckoutStep struct {
	board   ports.Board
	order   *CreateOrderStep
	request ports.CheckoutRequest
	reply   ports.CheckoutReply
}

func NewInitiateCheckoutStep(board ports.Board, created *CreateOrderStep, request ports.CheckoutRequest) *InitiateCheckoutStep {
	return &InitiateCheckoutStep{
		board:   board,
		order:   created,
		request: request,
	}
}

func (s *InitiateCheckoutStep) Name() string   { return "initiate_checkout" }
func (s *InitiateCheckoutStep) Required() bool { return false }

// Reply is the board's answer; zero when the call failed.
func (s *InitiateCheckoutStep) Reply() ports.CheckoutReply {
	return s.reply
}

func (s *InitiateCheckoutStep) Execute(ctx context.Context) error {
	req := s.request
	req.OrderID = s.order.OrderID()

	res, err := s.board.Checkout(ctx, req)
	if err != nil {
		return asTransport(err)
	}
	if !res.OK {
		return apperr.Business(nonEmpty(res.Error))
	}
	s.reply = res
	return nil
}

func asTransport(err error) error {
	if _, ok := apperr.KindOf(err); ok {
		return err
	}
	return apperr.Transport(apperr.ErrMsgUnreachable, err)
}

func nonEmpty(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return apperr.ErrMsgUnknownError
	}
	return msg
}
