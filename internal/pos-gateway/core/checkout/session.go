package checkout

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
)

// Step is the position of a flow in the checkout state machine.
type Step string

const (
	StepIdle       Step = "idle"
	StepSelecting  Step = "selecting"
	StepConfirming Step = "confirming"
	StepResult     Step = "result"
)

type Method string

const (
	MethodQR   Method = "qr"
	MethodCash Method = "cash"
	MethodCard Method = "card"
)

var (
	ErrIllegalTransition    = errors.New("checkout: illegal transition")
	ErrMockPaymentsDisabled = errors.New(apperr.ErrMsgDevPaymentsOff)
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodQR, MethodCash, MethodCard:
		return m, nil
	default:
		return "", apperr.Validationf("%s: %q", apperr.ErrMsgUnknownMethod, s)
	}
}

// Selection is what the operator chose on the method screen.
type Selection struct {
	Method      string
	WithInvoice bool
	NIT         string
	RazonSocial string
	Notes       string
}

func (s Selection) validate() (Method, error) {
	m, err := ParseMethod(s.Method)
	if err != nil {
		return "", err
	}
	if s.WithInvoice && (strings.TrimSpace(s.NIT) == "" || strings.TrimSpace(s.RazonSocial) == "") {
		return "", apperr.Validation(apperr.ErrMsgInvoiceFields)
	}
	return m, nil
}

type Voucher struct {
	Code      string `json:"code"`
	ExpiresAt string `json:"expires_at"`
}

// Result is what the confirmation screen shows. Which fields are set depends
// on the method: QRAsset for qr, Reference for card, Voucher for cash.
type Result struct {
	Method        Method          `json:"method"`
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	QRAsset       string          `json:"qr_asset,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Voucher       *Voucher        `json:"voucher,omitempty"`
	CheckoutOK    bool            `json:"checkout_ok"`
	CheckoutError string          `json:"checkout_error,omitempty"`
	Paid          bool            `json:"paid"`
}

type PaymentSession struct {
	ID          string  `json:"id"`
	OrderID     string  `json:"order_id,omitempty"`
	Method      Method  `json:"method,omitempty"`
	WithInvoice bool    `json:"with_invoice"`
	NIT         string  `json:"nit,omitempty"`
	RazonSocial string  `json:"razon_social,omitempty"`
	Step        Step    `json:"step"`
	Result      *Result `json:"result,omitempty"`
	Error       string  `json:"error,omitempty"`

	// payload is kept once the order exists so a return to the method
	// screen can re-run checkout against the same order.
	payload *order.Payload
}

func (s *PaymentSession) clone() *PaymentSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.Result != nil {
		r := *s.Result
		if s.Result.Voucher != nil {
			v := *s.Result.Voucher
			r.Voucher = &v
		}
		c.Result = &r
	}
	c.payload = nil
	return &c
}

// View is a read-only snapshot for the UI.
type View struct {
	Step    Step            `json:"step"`
	Session *PaymentSession `json:"session,omitempty"`
}
