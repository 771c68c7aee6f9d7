package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Akashkilledar/trendy-footwear/internal/platform/httpx"
)

const (
	defaultAPIPrefix = "/api/v1"
	defaultTimeout   = 60 * time.Second
)

// RouterConfig wires the handler groups and shared middleware into the
// service router. Session-scoped groups (cart, checkout) require the
// session middleware; admin and content ride without it.
type RouterConfig struct {
	Middlewares       []func(http.Handler) http.Handler
	SessionMiddleware func(http.Handler) http.Handler
	Health            *HealthHandlers
	Cart              *CartHandlers
	Checkout          *CheckoutHandlers
	Admin             *AdminHandlers
	Content           *ContentHandlers
	Timeout           time.Duration
}

// NewRouter constructs the chi router with shared middleware and all
// route groups mounted under /api/v1.
func NewRouter(cfg RouterConfig) chi.Router {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	health := cfg.Health
	if health == nil {
		health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	for _, mw := range cfg.Middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.Use(middleware.Timeout(timeout))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("route_not_found", fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	r.Route(defaultAPIPrefix, func(api chi.Router) {
		api.Route("/cart", func(group chi.Router) {
			if cfg.SessionMiddleware != nil {
				group.Use(cfg.SessionMiddleware)
			}
			if cfg.Cart != nil {
				cfg.Cart.Routes(group)
			}
		})
		api.Route("/checkout", func(group chi.Router) {
			if cfg.SessionMiddleware != nil {
				group.Use(cfg.SessionMiddleware)
			}
			if cfg.Checkout != nil {
				cfg.Checkout.Routes(group)
			}
		})
		api.Route("/admin", func(group chi.Router) {
			if cfg.Admin != nil {
				cfg.Admin.Routes(group)
			}
		})
		api.Route("/content", func(group chi.Router) {
			if cfg.Content != nil {
				cfg.Content.Routes(group)
			}
		})
	})

	return r
}
