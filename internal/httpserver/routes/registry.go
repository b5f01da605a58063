package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/daylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
	// Guard builds a middleware once deps are known
	Guard func(d deps.Deps) Middleware
)

type route struct {
	reg    Registrar
	guards []Guard
}

var registry []route

// Register queues reg, wrapped by guards in the given order.
func Register(reg Registrar, guards ...Guard) {
	registry = append(registry, route{reg: reg, guards: guards})
}

// RegisterAll mounts every queued registrar on r
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, rt := range registry {
		if len(rt.guards) == 0 {
			rt.reg(r, d)
			continue
		}
		mws := make([]Middleware, 0, len(rt.guards))
		for _, g := range rt.guards {
			mws = append(mws, g(d))
		}
		rt.reg(r.With(mws...), d)
	}
}

func adminOnly(d deps.Deps) Middleware {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}

func knownHost(d deps.Deps) Middleware {
	return mw.EnforceHost(d.AllowedHosts, d.Logger)
}

func ownerOnly(d deps.Deps) Middleware {
	return mw.RequireOwner(d.APIToken, d.Logger)
}
