package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/daylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/handlers"
)

func init() { Register(registerImport, adminOnly, knownHost) }

func registerImport(r chi.Router, d deps.Deps) {
	r.Post("/import", handlers.TriggerImport(d))
}
