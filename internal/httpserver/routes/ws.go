package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/daylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/handlers"
)

func init() { Register(registerEvents, knownHost, ownerOnly) }

func registerEvents(r chi.Router, d deps.Deps) {
	r.Get("/ws", handlers.Events(d))
}
