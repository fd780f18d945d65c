package ports

import (
	"context"

	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
)

type BoardOrder struct {
	ID       string `json:"id"`
	TS       string `json:"ts,omitempty"`
	Item     string `json:"item,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

type PendingReply struct {
	OK    bool        `json:"ok"`
	Order *BoardOrder `json:"order,omitempty"`
	Error string      `json:"error,omitempty"`
}

type CheckoutRequest struct {
	OrderID       string `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
	WithInvoice   bool   `json:"with_invoice"`
	NIT           string `json:"nit,omitempty"`
	RazonSocial   string `json:"razon_social,omitempty"`
}

type Voucher struct {
	Code      string `json:"code"`
	ExpiresAt string `json:"expires_at"`
}

type CheckoutReply struct {
	OK      bool     `json:"ok"`
	Voucher *Voucher `json:"voucher,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Board is the order/board REST service. As with Ledger, an error means the
// call did not produce a usable response.
type Board interface {
	CreatePending(ctx context.Context, p order.Payload) (PendingReply, error)
	Checkout(ctx context.Context, req CheckoutRequest) (CheckoutReply, error)
}

// PaymentForcer is implemented by boards that expose the development-only
// mock-paid endpoint.
type PaymentForcer interface {
	MarkPaid(ctx context.Context, paymentID string) (Reply, error)
}
