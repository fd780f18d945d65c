package ledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pkg/interceptors"
	"github.com/jcmexdev/comanda/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
)

func TestRecord_SendsFormFields(t *testing.T) {
	var (
		form      map[string]string
		requestID string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		form = map[string]string{
			"item":     r.PostForm.Get("item"),
			"quantity": r.PostForm.Get("quantity"),
			"notes":    r.PostForm.Get("notes"),
			"price":    r.PostForm.Get("price"),
		}
		requestID = r.Header.Get(constants.HeaderXRequestId)
		_, _ = w.Write([]byte(`{"ok":true,"message":"guardado"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ctx := interceptors.WithRequestID(context.Background(), "req-7")
	reply, err := c.Record(ctx, order.Payload{
		Item:     "2x Pollo • 1x Soda",
		Quantity: 3,
		Price:    decimal.RequireFromString("55.5"),
		Notes:    "mesa 4",
	})

	require.NoError(t, err)
	assert.True(t, reply.OK)
	assert.Equal(t, "guardado", reply.Message)
	assert.Equal(t, map[string]string{
		"item":     "2x Pollo • 1x Soda",
		"quantity": "3",
		"notes":    "mesa 4",
		"price":    "55.50",
	}, form)
	assert.Equal(t, "req-7", requestID)
}

func TestCloseDay_ReadsTotal(t *testing.T) {
	var action string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		action = r.PostForm.Get("action")
		_, _ = w.Write([]byte(`{"ok":true,"total":812.5}`))
	}))
	defer srv.Close()

	reply, err := NewClient(srv.URL, time.Second).CloseDay(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "cierre", action)
	require.True(t, reply.Total.Valid)
	assert.Equal(t, "812.50", reply.Total.Decimal.StringFixed(2))
}

func TestRecord_BusinessErrorInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error":"Falta item"}`))
	}))
	defer srv.Close()

	reply, err := NewClient(srv.URL, time.Second).Record(context.Background(), order.Payload{Item: "x", Quantity: 1})

	require.NoError(t, err)
	assert.False(t, reply.OK)
	assert.Equal(t, "Falta item", reply.Error)
}

func TestRecord_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>moved</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Record(context.Background(), order.Payload{Item: "x", Quantity: 1})

	require.Error(t, err)
	assert.True(t, apperr.IsTransport(err))
	assert.Contains(t, err.Error(), apperr.ErrMsgInvalidResponse)
}

func TestRecord_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 20*time.Millisecond).Record(context.Background(), order.Payload{Item: "x", Quantity: 1})

	require.Error(t, err)
	assert.True(t, apperr.IsTransport(err))
}
