package transport

import (
	"context"
	"net/http"
	"time"

	"procurement-be/internal/apperror"
	"procurement-be/internal/catalog"
	"procurement-be/internal/journal"
	"procurement-be/internal/metrics"
	"procurement-be/internal/order"
	"procurement-be/internal/stock"
	"procurement-be/internal/user"

	"github.com/go-chi/chi/v5"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves the HTTP surface over the domain services.
type Handler struct {
	Orders   order.Service
	Products catalog.Service
	Stock    stock.Service
	Journal  journal.Service
	Users    user.Service
	Metrics  *metrics.Registry
	DB       Pinger
}

var (
	ErrRouteNotFound    = apperror.New(apperror.KindNotFound, "route not found")
	ErrMethodNotAllowed = apperror.New(apperror.KindMethodNotAllowed, "method not allowed")
)

// Routes builds the router. mws run on every request, matched or not, with
// the first one outermost.
func (h *Handler) Routes(mws ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(mws...)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, ErrMethodNotAllowed)
	})

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(requireActor)

		r.Post("/orders", h.createOrder)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/stats", h.orderStats)
		r.Get("/orders/{id}", h.getOrder)
		r.Put("/orders/{id}", h.updateOrder)
		r.Post("/orders/{id}/transition", h.transitionOrder)

		r.Post("/products", h.createProduct)
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Put("/products/{id}/price", h.setPrice)

		r.Post("/stock/inbound", h.recordInbound)
		r.Post("/stock/outbound", h.recordOutbound)
		r.Get("/stock", h.listStock)
		r.Get("/stock/{productId}", h.getStock)

		r.Get("/journal", h.queryJournal)

		r.Get("/users", h.listUsers)
		r.Put("/users/{id}/role", h.updateRole)
	})

	return r
}

// requireActor refuses anonymous requests before they reach a handler.
func requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := actorFrom(r); err != nil {
			WriteError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
