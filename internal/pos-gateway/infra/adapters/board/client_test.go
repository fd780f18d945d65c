package board

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pkg/interceptors"
	"github.com/jcmexdev/comanda/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/ports/portstest"
)

func TestCreatePending_SendsPriceAsNumber(t *testing.T) {
	var (
		body   map[string]any
		idem   string
		path   string
		method string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, method = r.URL.Path, r.Method
		idem = r.Header.Get(constants.HeaderXIdempotencyKey)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true,"order":{"id":"a1b2c3d4","ts":"2025-01-01T10:00:00Z","item":"2x Burger","quantity":2}}`))
	}))
	defer srv.Close()

	ctx := interceptors.WithIdempotencyKey(context.Background(), "pay-1")
	reply, err := NewClient(srv.URL+"/", time.Second).CreatePending(ctx, order.Payload{
		Item: "2x Burger", Quantity: 2, Price: decimal.RequireFromString("30.00"), Notes: "sin queso",
	})

	require.NoError(t, err)
	assert.Equal(t, "/api/pending", path)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "pay-1", idem)
	assert.Equal(t, float64(30), body["price"])
	assert.Equal(t, float64(2), body["quantity"])
	assert.Equal(t, "sin queso", body["notes"])
	require.NotNil(t, reply.Order)
	assert.Equal(t, "a1b2c3d4", reply.Order.ID)
}

func TestCheckout_RoundTrip(t *testing.T) {
	var got ports.CheckoutRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/checkout", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"voucher":{"code":"V1","expires_at":"2025-01-01"}}`))
	}))
	defer srv.Close()

	req := ports.CheckoutRequest{OrderID: "X1", PaymentMethod: "cash", WithInvoice: true, NIT: "123", RazonSocial: "ACME"}
	reply, err := NewClient(srv.URL, time.Second).Checkout(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, req, got)
	assert.True(t, reply.OK)
	assert.Equal(t, "V1", reply.Voucher.Code)
}

func TestMarkPaid_RejectionInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payments/X1/mock-paid", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"ok":false,"error":"payment not found"}`))
	}))
	defer srv.Close()

	reply, err := NewClient(srv.URL, time.Second).MarkPaid(context.Background(), "X1")

	require.NoError(t, err)
	assert.False(t, reply.OK)
	assert.Equal(t, "payment not found", reply.Error)
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("Bad Gateway"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).CreatePending(context.Background(), order.Payload{Item: "x", Quantity: 1})

	assert.True(t, apperr.IsTransport(err))
}

func TestGuard_OpensAfterConsecutiveTransportFailures(t *testing.T) {
	board := &portstest.Board{PendingErr: apperr.Transport(apperr.ErrMsgUnreachable, errors.New("refused"))}
	g := Guard(board, BreakerConfig{Name: "test", ConsecutiveFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := g.CreatePending(context.Background(), order.Payload{Item: "x", Quantity: 1})
		require.Error(t, err)
	}

	_, err := g.CreatePending(context.Background(), order.Payload{Item: "x", Quantity: 1})

	require.Error(t, err)
	assert.True(t, apperr.IsTransport(err))
	assert.Contains(t, err.Error(), errMsgBoardUnavailable)
	assert.Len(t, board.Created, 2)
}

func TestGuard_BusinessRejectionsDoNotTrip(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"ok":false,"error":"Falta item"}`))
	}))
	defer srv.Close()

	g := Guard(NewClient(srv.URL, time.Second), BreakerConfig{Name: "test", ConsecutiveFailures: 1, OpenTimeout: time.Minute})
	for i := 0; i < 3; i++ {
		reply, err := g.CreatePending(context.Background(), order.Payload{Item: "x", Quantity: 1})
		require.NoError(t, err)
		assert.False(t, reply.OK)
	}
	assert.EqualValues(t, 3, calls.Load())
}

type boardOnly struct{ ports.Board }

func TestGuard_KeepsPaymentForcerCapability(t *testing.T) {
	_, ok := Guard(&portstest.Board{}, DefaultBreakerConfig()).(ports.PaymentForcer)
	assert.True(t, ok)

	_, ok = Guard(boardOnly{&portstest.Board{}}, DefaultBreakerConfig()).(ports.PaymentForcer)
	assert.False(t, ok)
}
