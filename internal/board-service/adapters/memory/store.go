package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jcmexdev/comanda/internal/board-service/app"
	"github.com/jcmexdev/comanda/internal/board-service/domain"
)

var _ app.Store = (*Store)(nil)

// Store keeps the board in process memory. Orders are kept in arrival order.
type Store struct {
	mu       sync.RWMutex
	orders   []domain.Order
	index    map[string]int
	payments map[string]domain.Payment
}

func NewStore() *Store {
	return &Store{
		index:    make(map[string]int),
		payments: make(map[string]domain.Payment),
	}
}

func (s *Store) CreateOrder(_ context.Context, o domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[o.ID] = len(s.orders)
	s.orders = append(s.orders, o)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return s.orders[i], nil
}

func (s *Store) ListPending(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if !o.Delivered {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) MarkDelivered(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok || s.orders[i].Delivered {
		return domain.ErrNotFound
	}
	s.orders[i].Delivered = true
	s.orders[i].DeliveredAt = at
	return nil
}

func (s *Store) SavePayment(_ context.Context, p domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Voucher != nil {
		v := *p.Voucher
		p.Voucher = &v
	}
	s.payments[p.ID] = p
	return nil
}

func (s *Store) GetPayment(_ context.Context, id string) (domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return domain.Payment{}, domain.ErrNotFound
	}
	if p.Voucher != nil {
		v := *p.Voucher
		p.Voucher = &v
	}
	return p, nil
}
