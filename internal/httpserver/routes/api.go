package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/daylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(knownHost(d))
		api.Use(mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.RateBurst,
			RefillPerIPPerMin: d.RatePerMin,
			MaxEntries:        10000,
			SweepInterval:     time.Minute,
			IdleTTL:           10 * time.Minute,
			TrustProxy:        d.TrustProxy,
		}))
		api.Use(ownerOnly(d))

		api.Get("/entries/{date}", handlers.GetEntry(d))
		api.Put("/entries/{date}", handlers.PutEntry(d))

		api.Get("/session", handlers.SessionStatus(d))
		api.Post("/session/edit", handlers.SessionEdit(d))
		api.Post("/session/flush", handlers.SessionFlush(d))
		api.Post("/session/navigate", handlers.SessionNavigate(d))

		api.Get("/tags", handlers.ListTags(d))
		api.Get("/tags/{tag}", handlers.TagCollection(d))
	})
}
