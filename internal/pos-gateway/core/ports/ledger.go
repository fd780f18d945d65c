package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
)

// LedgerReply is the ledger endpoint response. Total is only set for the
// day-closing request.
type LedgerReply struct {
	OK      bool                `json:"ok"`
	Error   string              `json:"error,omitempty"`
	Message string              `json:"message,omitempty"`
	Total   decimal.NullDecimal `json:"total"`
}

// Ledger is the system of record. Implementations return an error only for
// transport problems; business rejections come back as OK=false.
type Ledger interface {
	Record(ctx context.Context, p order.Payload) (LedgerReply, error)
	CloseDay(ctx context.Context) (LedgerReply, error)
}
