// Package order turns a cart into the payload shared by the ledger and the
// board service.
package order

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/cart"
)

// Line separators of the item summary. The ledger and the board parse these
// strings, so they must not change.
const (
	LedgerSeparator = " • "
	OrderSeparator  = " + "
)

// Payload is an immutable snapshot of an order at submission time.
type Payload struct {
	Item     string
	Quantity int
	Price    decimal.Decimal
	Notes    string
}

// PriceString renders the price with exactly two decimals.
func (p Payload) PriceString() string {
	return p.Price.StringFixed(2)
}

// Source is anything that can list cart lines in insertion order.
type Source interface {
	Lines() []cart.Line
}

// Build snapshots src into a Payload. It fails with a validation error when
// there is nothing to order.
func Build(src Source, sep, notes string) (Payload, error) {
	lines := src.Lines()
	if len(lines) == 0 {
		return Payload{}, apperr.Validation(apperr.ErrMsgCartEmpty)
	}

	quantity := 0
	total := decimal.Zero
	for _, l := range lines {
		quantity += l.Quantity
		total = total.Add(l.TotalPrice)
	}
	if quantity <= 0 {
		return Payload{}, apperr.Validation(apperr.ErrMsgQuantityPositive)
	}

	return Payload{
		Item:     Summarize(lines, sep),
		Quantity: quantity,
		Price:    total.Round(2),
		Notes:    notes,
	}, nil
}

// Summarize renders "2x Pollo (arroz, papas)" per line joined by sep.
func Summarize(lines []cart.Line, sep string) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		s := fmt.Sprintf("%dx %s", l.Quantity, l.Identity.Product)
		if len(l.Identity.Modifiers) > 0 {
			s += " (" + strings.Join(l.Identity.Modifiers, ", ") + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, sep)
}

// Validate checks a payload that was not produced by Build, such as a single
// item ordered straight from a product card.
func Validate(p Payload) error {
	if strings.TrimSpace(p.Item) == "" {
		return apperr.Validation(apperr.ErrMsgItemRequired)
	}
	if p.Quantity <= 0 {
		return apperr.Validation(apperr.ErrMsgQuantityPositive)
	}
	return nil
}
