package httpx

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/comanda/internal/pos-gateway/core/checkout"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/cart"
)

// Quantity accepts a JSON number or a raw string typed by the operator and
// coerces it the way the cart does.
type Quantity int

func (q *Quantity) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*q = 1
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	*q = Quantity(cart.ParseQuantity(s))
	return nil
}

type AddItemRequest struct {
	Product   string          `json:"product"`
	Quantity  Quantity        `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Modifiers []string        `json:"modifiers"`
}

type UpdateItemRequest struct {
	Quantity Quantity `json:"quantity"`
}

type SubmitRequest struct {
	Notes string `json:"notes"`
}

type QuickOrderRequest struct {
	Item     string          `json:"item"`
	Quantity int             `json:"quantity"`
	Notes    string          `json:"notes"`
	Price    decimal.Decimal `json:"price"`
}

type ConfirmRequest struct {
	PaymentMethod string `json:"payment_method"`
	WithInvoice   bool   `json:"with_invoice"`
	NIT           string `json:"nit"`
	RazonSocial   string `json:"razon_social"`
	Notes         string `json:"notes"`
}

type SessionResponse struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"session_id"`
}

type LineResponse struct {
	ID         string   `json:"id"`
	Key        string   `json:"key"`
	Product    string   `json:"product"`
	Modifiers  []string `json:"modifiers"`
	Quantity   int      `json:"quantity"`
	UnitPrice  string   `json:"unit_price"`
	TotalPrice string   `json:"total_price"`
}

type CartResponse struct {
	OK       bool           `json:"ok"`
	Lines    []LineResponse `json:"lines"`
	Quantity int            `json:"quantity"`
	Total    string         `json:"total"`
}

type SubmitResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type ClosingResponse struct {
	OK    bool   `json:"ok"`
	Total string `json:"total,omitempty"`
}

type CheckoutResponse struct {
	OK       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Checkout checkout.View `json:"checkout"`
}

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func mapCart(s cart.Snapshot) CartResponse {
	lines := make([]LineResponse, len(s.Lines))
	for i, l := range s.Lines {
		mods := l.Identity.Modifiers
		if mods == nil {
			mods = []string{}
		}
		lines[i] = LineResponse{
			ID:         l.ID,
			Key:        l.Identity.Key(),
			Product:    l.Identity.Product,
			Modifiers:  mods,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice.StringFixed(2),
			TotalPrice: l.TotalPrice.StringFixed(2),
		}
	}
	return CartResponse{
		OK:       true,
		Lines:    lines,
		Quantity: s.Quantity,
		Total:    s.Total.StringFixed(2),
	}
}
