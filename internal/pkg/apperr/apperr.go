// Package apperr classifies failures of the order pipeline into the three
// kinds the UI reacts to differently: validation problems caught before any
// network call, transport failures talking to a backend, and business
// rejections returned by a backend.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota
	KindTransport
	KindBusiness
)

// Error message constants shared by the gateway core.
const (
	ErrMsgCartEmpty         = "cart is empty"
	ErrMsgQuantityPositive  = "quantity must be positive"
	ErrMsgItemRequired      = "item is required"
	ErrMsgInvoiceFields     = "nit and razon_social are required for an invoice"
	ErrMsgUnknownMethod     = "unknown payment method"
	ErrMsgInvalidResponse   = "invalid response from backend"
	ErrMsgUnreachable       = "backend unreachable"
	ErrMsgUnknownError      = "unknown error"
	ErrMsgMissingOrderID    = "order created without an id"
	ErrMsgDevPaymentsOff    = "mock payments are disabled"
	ErrMsgNoActiveSession   = "no active payment session"
	ErrMsgNoOrderForSession = "payment session has no order yet"
	ErrMsgNotesLocked       = "notes cannot change once the order exists"
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindTransport:
		return "TRANSPORT"
	case KindBusiness:
		return "BUSINESS"
	default:
		return "UNKNOWN"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Transport wraps a network or decoding failure. err may be nil.
func Transport(message string, err error) *Error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

// Business carries a rejection message from a backend verbatim.
func Business(message string) *Error {
	return &Error{Kind: KindBusiness, Message: message}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func IsValidation(err error) bool { return is(err, KindValidation) }
func IsTransport(err error) bool  { return is(err, KindTransport) }
func IsBusiness(err error) bool   { return is(err, KindBusiness) }

func is(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}
