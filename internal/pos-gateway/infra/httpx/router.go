package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/comanda/internal/pkg/interceptors"
)

func NewRouter(handler *Handler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(interceptors.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", handler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/closing", handler.CloseDay)
		r.Post("/sessions", handler.CreateSession)

		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/cart", handler.GetCart)
			r.Delete("/cart", handler.ClearCart)
			r.Post("/cart/items", handler.AddItem)
			r.Put("/cart/items/{lineID}", handler.UpdateItem)
			r.Delete("/cart/items/{lineID}", handler.RemoveItem)

			r.Post("/submit", handler.Submit)
			r.Post("/orders", handler.QuickOrder)

			r.Get("/checkout", handler.GetCheckout)
			r.Post("/checkout/open", handler.OpenCheckout)
			r.Post("/checkout/confirm", handler.ConfirmCheckout)
			r.Post("/checkout/back", handler.BackCheckout)
			r.Post("/checkout/close", handler.CloseCheckout)
			r.Post("/checkout/mock-paid", handler.MockPaid)
		})
	})

	return otelhttp.NewHandler(r, "pos-gateway")
}
