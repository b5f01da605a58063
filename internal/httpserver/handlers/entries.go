package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/mw"
)

type contentRequest struct {
	Content string `json:"content"`
}

// GetEntry returns the entry of {date}, or a placeholder with exists=false
func GetEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := domain.ParseDateKey(chi.URLParam(r, "date"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		entry, err := d.Workspaces.Fetch(r.Context(), mw.OwnerFrom(r.Context()), date)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

// PutEntry overwrites the entry of {date} immediately, bypassing the
// editing session
func PutEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := domain.ParseDateKey(chi.URLParam(r, "date"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		var req contentRequest
		if err := decodeBody(w, r, &req); err != nil {
			badRequest(w, "invalid body: "+err.Error())
			return
		}

		if err := d.Workspaces.Save(r.Context(), mw.OwnerFrom(r.Context()), date, req.Content); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.DiaryEntry{Date: date, Content: req.Content, Exists: true})
	}
}
