package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/daylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/handlers"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	admin := r.With(adminOnly(d))
	admin.Get("/readyz", handlers.Readyz(d))
	admin.Get("/infra", handlers.Infra(d))
}
