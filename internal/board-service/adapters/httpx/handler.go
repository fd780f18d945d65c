package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/comanda/internal/board-service/app"
	"github.com/jcmexdev/comanda/internal/board-service/domain"
	"github.com/jcmexdev/comanda/internal/pkg/apperr"
	"github.com/jcmexdev/comanda/internal/pkg/interceptors"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListPending(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := PendingListResponse{OK: true, Orders: make([]OrderResponse, 0, len(orders))}
	for _, o := range orders {
		out.Orders = append(out.Orders, mapOrder(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreatePending(w http.ResponseWriter, r *http.Request) {
	var req CreatePendingRequest
	if !decode(w, r, &req) {
		return
	}

	o, err := h.service.CreatePending(r.Context(), app.NewOrder{
		Item:     req.Item,
		Quantity: int(req.Quantity),
		Notes:    req.Notes,
		Price:    req.Price.Decimal,
	}, interceptors.IdempotencyKey(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, PendingResponse{OK: true, Order: mapOrder(o)})
}

func (h *Handler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.MarkDelivered(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeliveredResponse{OK: true, ID: id})
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.service.Checkout(r.Context(), app.CheckoutRequest{
		OrderID:     req.OrderID,
		Method:      req.PaymentMethod,
		WithInvoice: req.WithInvoice,
		NIT:         req.NIT,
		RazonSocial: req.RazonSocial,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckoutResponse{OK: true, PaymentID: p.ID, Voucher: mapVoucher(p.Voucher)})
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Payment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PaymentEnvelope{OK: true, Payment: mapPayment(p)})
}

func (h *Handler) MockPaid(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.MarkPaid(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "board request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, ErrorResponse{OK: false, Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMockPaymentsDisabled):
		return http.StatusForbidden
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{OK: false, Error: "invalid json: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
