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
		r.Get("/pending", handler.ListPending)
		r.Post("/pending", handler.CreatePending)
		r.Post("/pending/{id}/delivered", handler.MarkDelivered)

		r.Post("/checkout", handler.Checkout)
		r.Get("/payments/{id}", handler.GetPayment)
		r.Post("/payments/{id}/mock-paid", handler.MockPaid)
	})

	return otelhttp.NewHandler(r, "board-service")
}
