package httpapi

import (
	"net/http"
	"time"

	"github.com/dmehra2102/planner/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	EnableMetrics  bool
}

// NewRouter mounts the web API. Everything under /api except register and
// login needs a bearer token.
func NewRouter(h *Handler, verifier middleware.Verifier, logger *zap.Logger, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	if cfg.EnableMetrics {
		r.Use(middleware.Metrics)
	}
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	r.Get("/healthz", h.Health)
	if cfg.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/register", h.Register)
		r.Post("/users/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(verifier))

			r.Post("/users/logout", h.Logout)
			r.Get("/users/me", h.Me)
			r.Get("/users", h.SearchUsers)
			r.Delete("/users/{id}", h.DeleteUser)

			r.Get("/lists", h.UserLists)
			r.Post("/lists", h.CreateList)
			r.Put("/lists/{id}", h.UpdateList)
			r.Delete("/lists/{id}", h.DeleteList)
			r.Get("/lists/{id}/todos", h.ListTodos)

			r.Get("/todos", h.AllTodos)
			r.Post("/todos", h.CreateTodo)
			r.Get("/todos/completed", h.CompletedTodos)
			r.Get("/todos/reserved", h.ReservedTodos)
			r.Get("/todos/search", h.SearchTodos)
			r.Get("/todos/tags/{tag}", h.TodosByTag)
			r.Get("/todos/due", h.DueTodos)
			r.Post("/todos/{id}/complete", h.CompleteTodo)
			r.Post("/todos/{id}/reserve", h.ReserveTodo)
			r.Delete("/todos/{id}", h.DeleteTodo)
		})
	})

	return r
}
