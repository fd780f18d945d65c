package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/checkout"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/dispatch"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/domain/order"
	"github.com/jcmexdev/comanda/internal/pos-gateway/core/session"
)

const maxBodyBytes = 1 << 20

// Handler exposes the sessions, carts and checkout flows of the gateway.
type Handler struct {
	sessions   *session.Registry
	dispatcher *dispatch.Dispatcher
	closing    atomic.Bool
}

func NewHandler(sessions *session.Registry, dispatcher *dispatch.Dispatcher) *Handler {
	return &Handler{
		sessions:   sessions,
		dispatcher: dispatcher,
	}
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	slog.InfoContext(r.Context(), "session created", "session_id", s.ID)
	writeJSON(w, http.StatusCreated, SessionResponse{OK: true, SessionID: s.ID})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Lock()
	defer s.Unlock()
	writeJSON(w, http.StatusOK, mapCart(s.Cart.Snapshot()))
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Product == "" {
		writeError(w, http.StatusUnprocessableEntity, "invalid_item", apperr.ErrMsgItemRequired)
		return
	}

	h.mutateCart(w, r, func(s *session.Session) {
		s.Cart.Add(req.Product, int(req.Quantity), req.UnitPrice, req.Modifiers)
	})
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if !decode(w, r, &req) {
		return
	}
	lineID := chi.URLParam(r, "lineID")
	h.mutateCart(w, r, func(s *session.Session) {
		s.Cart.SetQuantity(lineID, int(req.Quantity))
	})
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineID")
	h.mutateCart(w, r, func(s *session.Session) {
		s.Cart.Remove(lineID)
	})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, func(s *session.Session) {
		s.Cart.Clear()
	})
}

// Submit sends the whole cart to the ledger as one order.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	s, release, ok := h.begin(w, r)
	if !ok {
		return
	}
	defer release()

	res := h.dispatcher.SubmitCart(r.Context(), s.Cart, req.Notes, s)

	writeResult(w, res)
}

// QuickOrder sends a single hand-built order without touching the cart.
func (h *Handler) QuickOrder(w http.ResponseWriter, r *http.Request) {
	var req QuickOrderRequest
	if !decode(w, r, &req) {
		return
	}
	_, release, ok := h.begin(w, r)
	if !ok {
		return
	}
	defer release()

	res := h.dispatcher.Submit(r.Context(), order.Payload{
		Item:     req.Item,
		Quantity: req.Quantity,
		Price:    req.Price.Round(2),
		Notes:    req.Notes,
	})
	writeResult(w, res)
}

// CloseDay runs the ledger day closing. Only one may run at a time.
func (h *Handler) CloseDay(w http.ResponseWriter, r *http.Request) {
	if !h.closing.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "busy", session.ErrBusy.Error())
		return
	}
	defer h.closing.Store(false)

	res := h.dispatcher.CloseDay(r.Context())
	if !res.OK {
		writeError(w, statusFor(res.Err), "closing_failed", res.Error)
		return
	}
	resp := ClosingResponse{OK: true}
	if res.Total.Valid {
		resp.Total = res.Total.Decimal.StringFixed(2)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Lock()
	view := s.Flow.View()
	s.Unlock()
	writeJSON(w, http.StatusOK, CheckoutResponse{OK: true, Checkout: view})
}

func (h *Handler) OpenCheckout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s *session.Session) (checkout.View, error) {
		return s.Flow.Open()
	})
}

func (h *Handler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if !decode(w, r, &req) {
		return
	}
	s, release, ok := h.begin(w, r)
	if !ok {
		return
	}
	defer release()

	s.Lock()
	view, err := s.Flow.Confirm(r.Context(), checkout.Selection{
		Method:      req.PaymentMethod,
		WithInvoice: req.WithInvoice,
		NIT:         req.NIT,
		RazonSocial: req.RazonSocial,
		Notes:       req.Notes,
	})
	s.Unlock()

	writeCheckout(w, view, err)
}

func (h *Handler) BackCheckout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s *session.Session) (checkout.View, error) {
		return s.Flow.Back()
	})
}

func (h *Handler) CloseCheckout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s *session.Session) (checkout.View, error) {
		return s.Flow.Close(), nil
	})
}

func (h *Handler) MockPaid(w http.ResponseWriter, r *http.Request) {
	s, release, ok := h.begin(w, r)
	if !ok {
		return
	}
	defer release()

	s.Lock()
	view, err := s.Flow.MarkPaid(r.Context())
	s.Unlock()

	writeCheckout(w, view, err)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "sessions": h.sessions.Len()})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
		return nil, false
	}
	return s, true
}

// begin looks up the session and marks it busy for a network call.
func (h *Handler) begin(w http.ResponseWriter, r *http.Request) (*session.Session, func(), bool) {
	s, ok := h.session(w, r)
	if !ok {
		return nil, nil, false
	}
	release, err := s.Begin()
	if err != nil {
		writeError(w, http.StatusConflict, "busy", err.Error())
		return nil, nil, false
	}
	return s, release, true
}

// mutateCart applies fn unless a submission is in flight, then answers with
// the cart.
func (h *Handler) mutateCart(w http.ResponseWriter, r *http.Request, fn func(*session.Session)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Lock()
	if s.Busy() {
		s.Unlock()
		writeError(w, http.StatusConflict, "busy", session.ErrBusy.Error())
		return
	}
	fn(s)
	snap := s.Cart.Snapshot()
	s.Unlock()
	writeJSON(w, http.StatusOK, mapCart(snap))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(*session.Session) (checkout.View, error)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Lock()
	if s.Busy() {
		s.Unlock()
		writeError(w, http.StatusConflict, "busy", session.ErrBusy.Error())
		return
	}
	view, err := fn(s)
	s.Unlock()
	writeCheckout(w, view, err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

// decodeOptional treats an empty body as an empty request.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	return decode(w, r, v)
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrBusy), errors.Is(err, checkout.ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrMockPaymentsDisabled):
		return http.StatusForbidden
	}
	kind, ok := apperr.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func codeFor(err error) string {
	if kind, ok := apperr.KindOf(err); ok {
		switch kind {
		case apperr.KindValidation:
			return "validation"
		case apperr.KindTransport:
			return "upstream_unavailable"
		case apperr.KindBusiness:
			return "upstream_rejected"
		}
	}
	switch statusFor(err) {
	case http.StatusConflict:
		return "conflict"
	case http.StatusForbidden:
		return "forbidden"
	}
	return "internal_error"
}

func writeResult(w http.ResponseWriter, res dispatch.Result) {
	if !res.OK {
		writeError(w, statusFor(res.Err), codeFor(res.Err), res.Error)
		return
	}
	writeJSON(w, http.StatusOK, SubmitResponse{OK: true, Message: res.Message})
}

func writeCheckout(w http.ResponseWriter, view checkout.View, err error) {
	if err != nil {
		writeJSON(w, statusFor(err), CheckoutResponse{OK: false, Error: err.Error(), Checkout: view})
		return
	}
	writeJSON(w, http.StatusOK, CheckoutResponse{OK: true, Checkout: view})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		OK:    false,
		Error: msg,
		Code:  code,
	})
}
