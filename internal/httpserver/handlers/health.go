package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/daylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/daylog/internal/logger"
	"github.com/MrSnakeDoc/daylog/internal/workspace"
)

const probeTimeout = 2 * time.Second

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

// Healthz reports liveness only; it never touches the store
func Healthz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: d.Now().Sub(d.StartTime).Seconds(),
		})
	}
}

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Store string `json:"store"`
	Error string `json:"error,omitempty"`
}

// Readyz pings the entry store
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := probeStore(r.Context(), d)
		resp := readyzResponse{Ready: st.OK, Store: st.Backend, Error: st.Error}
		if !st.OK {
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type storeStatus struct {
	OK      bool   `json:"ok"`
	Backend string `json:"backend"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string          `json:"mode"`
	Store      storeStatus     `json:"store"`
	Workspaces workspace.Stats `json:"workspaces"`
	Clients    int             `json:"ws_clients"`
	Importer   bool            `json:"importer"`
}

// Infra reports store reachability and catalog statistics
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := infraResponse{
			Store:    probeStore(r.Context(), d),
			Importer: d.ImportTrigger != nil,
		}
		if d.Workspaces != nil {
			resp.Workspaces = d.Workspaces.Stats()
		}
		if d.Hub != nil {
			resp.Clients = d.Hub.Clients()
		}

		switch {
		case !resp.Store.OK:
			resp.Mode = "degraded" // cached entries still readable, saves fail
		case resp.Workspaces.PendingSessions > 0:
			resp.Mode = "pending"
		default:
			resp.Mode = "ok"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func probeStore(ctx context.Context, d deps.Deps) storeStatus {
	if d.Store == nil {
		return storeStatus{Error: "store not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := d.Now()
	if err := d.Store.Ping(ctx); err != nil {
		d.Logger.Warn("store ping failed", logger.String("store", d.Store.Name()), logger.Error(err))
		return storeStatus{Backend: d.Store.Name(), Error: err.Error()}
	}
	return storeStatus{OK: true, Backend: d.Store.Name(), Latency: d.Now().Sub(start).String()}
}
