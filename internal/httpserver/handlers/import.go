package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/daylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/daylog/internal/logger"
)

type importResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// TriggerImport asks the archive importer for an immediate run
func TriggerImport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ImportTrigger == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no archive file configured"})
			return
		}

		select {
		case d.ImportTrigger <- struct{}{}:
			d.Logger.Info("manual archive import triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, importResponse{Triggered: true, Message: "import triggered"})
		default:
			d.Logger.Warn("archive import already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, importResponse{Message: "import already in progress, please wait"})
		}
	}
}
