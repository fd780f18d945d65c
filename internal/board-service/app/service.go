package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/jcmexdev/comanda/internal/board-service/domain"
	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pkg/cache"
)

const idempotencyTTL = 24 * time.Hour

type Config struct {
	VoucherTTL  time.Duration
	DevPayments bool
}

type NewOrder struct {
	Item     string
	Quantity int
	Notes    string
	Price    decimal.Decimal
}

type CheckoutRequest struct {
	OrderID     string
	Method      string
	WithInvoice bool
	NIT         string
	RazonSocial string
}

type Service struct {
	store  Store
	cache  cache.Cache
	cfg    Config
	sfg    singleflight.Group
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewService(store Store, c cache.Cache, cfg Config) *Service {
	if cfg.VoucherTTL <= 0 {
		cfg.VoucherTTL = 15 * time.Minute
	}
	return &Service{
		store:  store,
		cache:  c,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
		newID:  shortID,
	}
}

// CreatePending queues a new order. A repeated idempotency key returns the
// order created by the first call.
func (s *Service) CreatePending(ctx context.Context, in NewOrder, idemKey string) (domain.Order, error) {
	in.Item = strings.TrimSpace(in.Item)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Item == "" {
		return domain.Order{}, apperr.Validation(domain.ErrMsgMissingItem)
	}
	if in.Quantity < 0 {
		return domain.Order{}, apperr.Validation(domain.ErrMsgInvalidQuantity)
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if idemKey == "" {
		return s.createOrder(ctx, in)
	}

	key := s.cache.GenerateKey("idem", idemKey)
	v, err, _ := s.sfg.Do(key, func() (any, error) {
		id, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			o, err := s.store.GetOrder(ctx, id)
			if err == nil {
				return o, nil
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
		case !errors.Is(err, cache.ErrMiss):
			s.logger.WarnContext(ctx, "idempotency lookup failed", "key", idemKey, "error", err)
		}

		o, err := s.createOrder(ctx, in)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, o.ID, idempotencyTTL); err != nil {
			s.logger.WarnContext(ctx, "idempotency store failed", "key", idemKey, "error", err)
		}
		return o, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return v.(domain.Order), nil
}

func (s *Service) createOrder(ctx context.Context, in NewOrder) (domain.Order, error) {
	o := domain.Order{
		ID:       s.newID(),
		TS:       s.now(),
		Item:     in.Item,
		Quantity: in.Quantity,
		Notes:    in.Notes,
		Price:    in.Price,
	}
	if err := s.store.CreateOrder(ctx, o); err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	s.logger.InfoContext(ctx, "order queued", "order_id", o.ID, "item", o.Item, "quantity", o.Quantity)
	return o, nil
}

func (s *Service) ListPending(ctx context.Context) ([]domain.Order, error) {
	return s.store.ListPending(ctx)
}

func (s *Service) MarkDelivered(ctx context.Context, id string) error {
	if err := s.store.MarkDelivered(ctx, id, s.now()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "order delivered", "order_id", id)
	return nil
}

// Checkout opens or updates the payment of an order. Cash payments keep
// their voucher until it expires, so a repeated checkout hands out the same
// code.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (domain.Payment, error) {
	method, err := domain.ParsePaymentMethod(req.Method)
	if err != nil {
		return domain.Payment{}, err
	}
	req.NIT = strings.TrimSpace(req.NIT)
	req.RazonSocial = strings.TrimSpace(req.RazonSocial)
	if req.WithInvoice && (req.NIT == "" || req.RazonSocial == "") {
		return domain.Payment{}, apperr.Validation(apperr.ErrMsgInvoiceFields)
	}

	o, err := s.store.GetOrder(ctx, req.OrderID)
	if err != nil {
		return domain.Payment{}, err
	}

	v, err, _ := s.sfg.Do("checkout:"+o.ID+":"+string(method), func() (any, error) {
		p, err := s.loadPayment(ctx, o.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			p = domain.Payment{
				ID:        o.ID,
				OrderID:   o.ID,
				Status:    domain.PaymentPending,
				CreatedAt: s.now(),
			}
		case err != nil:
			return nil, err
		case p.Status == domain.PaymentPaid:
			return p, nil
		}

		p.Method = method
		p.Amount = o.Price
		p.WithInvoice = req.WithInvoice
		p.NIT, p.RazonSocial = "", ""
		if req.WithInvoice {
			p.NIT, p.RazonSocial = req.NIT, req.RazonSocial
		}
		if method != domain.MethodCash {
			p.Voucher = nil
		} else if !p.Voucher.Valid(s.now()) {
			p.Voucher = &domain.Voucher{
				Code:      strings.ToUpper(s.newID()),
				ExpiresAt: s.now().Add(s.cfg.VoucherTTL),
			}
		}

		if err := s.savePayment(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	p := v.(domain.Payment)
	s.logger.InfoContext(ctx, "checkout initiated", "order_id", p.OrderID, "method", p.Method, "invoice", p.WithInvoice)
	return p, nil
}

func (s *Service) Payment(ctx context.Context, id string) (domain.Payment, error) {
	return s.loadPayment(ctx, id)
}

// MarkPaid settles a payment without a provider. Development only.
func (s *Service) MarkPaid(ctx context.Context, id string) (domain.Payment, error) {
	if !s.cfg.DevPayments {
		return domain.Payment{}, domain.ErrMockPaymentsDisabled
	}
	p, err := s.loadPayment(ctx, id)
	if err != nil {
		return domain.Payment{}, err
	}
	if p.Status == domain.PaymentPaid {
		return p, nil
	}
	p.Status = domain.PaymentPaid
	p.PaidAt = s.now()
	if err := s.savePayment(ctx, p); err != nil {
		return domain.Payment{}, err
	}
	s.logger.InfoContext(ctx, "payment marked paid", "payment_id", p.ID)
	return p, nil
}

func (s *Service) loadPayment(ctx context.Context, id string) (domain.Payment, error) {
	key := s.cache.GenerateKey("payment", id)
	raw, err := s.cache.Get(ctx, key)
	if err == nil {
		var p domain.Payment
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			return p, nil
		}
		s.logger.WarnContext(ctx, "discarding corrupt cached payment", "payment_id", id)
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.WarnContext(ctx, "payment cache read failed", "payment_id", id, "error", err)
	}

	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return domain.Payment{}, err
	}
	s.cachePayment(ctx, p)
	return p, nil
}

func (s *Service) savePayment(ctx context.Context, p domain.Payment) error {
	if err := s.store.SavePayment(ctx, p); err != nil {
		return fmt.Errorf("save payment: %w", err)
	}
	s.cachePayment(ctx, p)
	return nil
}

func (s *Service) cachePayment(ctx context.Context, p domain.Payment) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.GenerateKey("payment", p.ID), string(raw), s.cfg.VoucherTTL); err != nil {
		s.logger.WarnContext(ctx, "payment cache write failed", "payment_id", p.ID, "error", err)
	}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
