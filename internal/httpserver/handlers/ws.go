package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/daylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/mw"
	"github.com/MrSnakeDoc/daylog/internal/logger"
)

// Events streams the owner's session status events over a websocket
func Events(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := mw.OwnerFrom(r.Context())
		if err := d.Hub.Serve(w, r, owner); err != nil {
			// the upgrader already answered the client
			d.Logger.Debug("websocket upgrade failed",
				logger.String("owner", owner.String()),
				logger.Error(err))
		}
	}
}
