package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/comanda/internal/board-service/domain"
)

// tsLayout matches the timestamps the kitchen screen already parses.
const tsLayout = "2006-01-02 15:04:05"

// Quantity accepts 2 or "2". Null and absent decode as 0.
type Quantity int

func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*q = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*q = 0
			return nil
		}
		b = []byte(s)
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("invalid quantity %s", b)
	}
	*q = Quantity(n)
	return nil
}

type CreatePendingRequest struct {
	Item     string              `json:"item"`
	Quantity Quantity            `json:"quantity"`
	Notes    string              `json:"notes"`
	Price    decimal.NullDecimal `json:"price"`
}

type CheckoutRequest struct {
	OrderID       string `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
	WithInvoice   bool   `json:"with_invoice"`
	NIT           string `json:"nit"`
	RazonSocial   string `json:"razon_social"`
}

type OrderResponse struct {
	ID       string `json:"id"`
	TS       string `json:"ts"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
	Price    string `json:"price"`
}

type PendingListResponse struct {
	OK     bool            `json:"ok"`
	Orders []OrderResponse `json:"orders"`
}

type PendingResponse struct {
	OK    bool          `json:"ok"`
	Order OrderResponse `json:"order"`
}

type DeliveredResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

type VoucherResponse struct {
	Code      string `json:"code"`
	ExpiresAt string `json:"expires_at"`
}

type CheckoutResponse struct {
	OK        bool             `json:"ok"`
	PaymentID string           `json:"payment_id"`
	Voucher   *VoucherResponse `json:"voucher,omitempty"`
}

type PaymentResponse struct {
	ID          string           `json:"id"`
	OrderID     string           `json:"order_id"`
	Method      string           `json:"method"`
	Status      string           `json:"status"`
	Amount      string           `json:"amount"`
	WithInvoice bool             `json:"with_invoice"`
	NIT         string           `json:"nit,omitempty"`
	RazonSocial string           `json:"razon_social,omitempty"`
	Voucher     *VoucherResponse `json:"voucher,omitempty"`
	PaidAt      string           `json:"paid_at,omitempty"`
}

type PaymentEnvelope struct {
	OK      bool            `json:"ok"`
	Payment PaymentResponse `json:"payment"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func mapOrder(o domain.Order) OrderResponse {
	return OrderResponse{
		ID:       o.ID,
		TS:       o.TS.Format(tsLayout),
		Item:     o.Item,
		Quantity: o.Quantity,
		Notes:    o.Notes,
		Price:    o.Price.StringFixed(2),
	}
}

func mapVoucher(v *domain.Voucher) *VoucherResponse {
	if v == nil {
		return nil
	}
	return &VoucherResponse{Code: v.Code, ExpiresAt: v.ExpiresAt.UTC().Format(time.RFC3339)}
}

func mapPayment(p domain.Payment) PaymentResponse {
	out := PaymentResponse{
		ID:          p.ID,
		OrderID:     p.OrderID,
		Method:      string(p.Method),
		Status:      string(p.Status),
		Amount:      p.Amount.StringFixed(2),
		WithInvoice: p.WithInvoice,
		NIT:         p.NIT,
		RazonSocial: p.RazonSocial,
		Voucher:     mapVoucher(p.Voucher),
	}
	if !p.PaidAt.IsZero() {
		out.PaidAt = p.PaidAt.UTC().Format(time.RFC3339)
	}
	return out
}
