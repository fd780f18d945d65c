package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/comanda/internal/pkg/apperr"
)

var (
	ErrNotFound             = errors.New("id not found")
	ErrMockPaymentsDisabled = errors.New(apperr.ErrMsgDevPaymentsOff)
)

const (
	ErrMsgMissingItem     = "missing item"
	ErrMsgInvalidQuantity = "invalid quantity"
)

// Order is a ticket on the board. It stays pending until marked delivered.
type Order struct {
	ID          string
	TS          time.Time
	Item        string
	Quantity    int
	Notes       string
	Price       decimal.Decimal
	Delivered   bool
	DeliveredAt time.Time
}

type PaymentMethod string

const (
	MethodQR   PaymentMethod = "qr"
	MethodCash PaymentMethod = "cash"
	MethodCard PaymentMethod = "card"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodQR, MethodCash, MethodCard:
		return m, nil
	default:
		return "", apperr.Validationf("%s: %q", apperr.ErrMsgUnknownMethod, s)
	}
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

type Voucher struct {
	Code      string
	ExpiresAt time.Time
}

func (v *Voucher) Valid(now time.Time) bool {
	return v != nil && now.Before(v.ExpiresAt)
}

// Payment collects the money of one order. Its ID is the order ID.
type Payment struct {
	ID          string
	OrderID     string
	Method      PaymentMethod
	WithInvoice bool
	NIT         string
	RazonSocial string
	Amount      decimal.Decimal
	Status      PaymentStatus
	Voucher     *Voucher
	CreatedAt   time.Time
	PaidAt      time.Time
}
