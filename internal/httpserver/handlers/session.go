package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/mw"
	"github.com/MrSnakeDoc/daylog/internal/scheduler"
	"github.com/MrSnakeDoc/daylog/internal/workspace"
)

type editRequest struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

type navigateRequest struct {
	Date string `json:"date"`
}

type navigateResponse struct {
	Entry   domain.DiaryEntry     `json:"entry"`
	Session workspace.StatusEvent `json:"session"`
}

func sessionView(r *http.Request, st scheduler.SessionStatus) workspace.StatusEvent {
	return workspace.NewStatusEvent(mw.OwnerFrom(r.Context()), st)
}

// SessionStatus returns the state of the owner's editing session
func SessionStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := d.Workspaces.Status(r.Context(), mw.OwnerFrom(r.Context()))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionView(r, st))
	}
}

// SessionEdit records the latest content; the save happens after the cooldown
func SessionEdit(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req editRequest
		if err := decodeBody(w, r, &req); err != nil {
			badRequest(w, "invalid body: "+err.Error())
			return
		}
		date, err := domain.ParseDateKey(req.Date)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		st, err := d.Workspaces.Edit(r.Context(), mw.OwnerFrom(r.Context()), date, req.Content)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusAccepted, sessionView(r, st))
	}
}

// SessionFlush forces the pending save and waits for the store
func SessionFlush(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := d.Workspaces.Flush(r.Context(), mw.OwnerFrom(r.Context()))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionView(r, st))
	}
}

// SessionNavigate saves the current date then loads the requested one
func SessionNavigate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req navigateRequest
		if err := decodeBody(w, r, &req); err != nil {
			badRequest(w, "invalid body: "+err.Error())
			return
		}
		date, err := domain.ParseDateKey(req.Date)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		owner := mw.OwnerFrom(r.Context())
		entry, err := d.Workspaces.Navigate(r.Context(), owner, date)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		st, err := d.Workspaces.Status(r.Context(), owner)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, navigateResponse{Entry: entry, Session: sessionView(r, st)})
	}
}
