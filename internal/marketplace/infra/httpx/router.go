package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/infra/httpx/middlewares"
	"github.com/jcmexdev/homechef-marketplace/internal/pkg/cache"
)

// RouterConfig carries the cross-cutting collaborators of the router.
// Idempotency may be nil to disable replay.
type RouterConfig struct {
	Tokens         middlewares.TokenParser
	Idempotency    cache.Cache
	IdempotencyTTL time.Duration
}

func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handler.Health)

	idempotent := middlewares.Idempotency(cfg.Idempotency, cfg.IdempotencyTTL)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewares.Authenticate(cfg.Tokens))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireRole(domain.RoleCustomer))

			r.With(idempotent).Post("/cart/add", handler.AddToCart)
			r.Get("/cart", handler.GetCart)
			r.Post("/cart/remove", handler.RemoveFromCart)

			r.With(idempotent).Post("/order/create", handler.CreateOrder)
			r.Get("/order/myorders", handler.MyOrders)
			r.Get("/order/{orderId}", handler.GetOrder)
			r.Put("/order/cancel/{orderId}", handler.CancelOrder)
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireRole(domain.RoleChef))

			r.Get("/order/chef/orders", handler.ChefOrders)
			r.Put("/order/chef/status/{orderId}", handler.ChefUpdateStatus)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewares.RequireRole(domain.RoleAdmin))

			r.Get("/orders", handler.AdminOrders)
			r.Put("/orders/{id}/status", handler.AdminUpdateStatus)
			r.Get("/orders/{id}/history", handler.OrderHistory)
			r.Get("/dashboard", handler.Dashboard)
		})
	})

	return otelhttp.NewHandler(r, "marketplace-api",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
}
