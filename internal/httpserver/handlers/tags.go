package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/mw"
	"github.com/MrSnakeDoc/daylog/internal/render"
)

type tagsResponse struct {
	Tags []domain.TagSummary `json:"tags"`
}

type collectionResponse struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
	Items any    `json:"items"`
}

// ListTags returns every tag of the owner's catalog
func ListTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := d.Workspaces.Tags(r.Context(), mw.OwnerFrom(r.Context()))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, tagsResponse{Tags: summaries})
	}
}

// TagCollection resolves {tag} into its body segments. With ?format=html
// each item also carries its rendered markdown.
func TagCollection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag := strings.TrimSpace(chi.URLParam(r, "tag"))
		if tag == "" {
			badRequest(w, "missing tag")
			return
		}

		items, err := d.Workspaces.Collection(r.Context(), mw.OwnerFrom(r.Context()), tag)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		resp := collectionResponse{Tag: tag, Count: len(items), Items: items}
		if r.URL.Query().Get("format") == "html" {
			rendered, err := render.Collection(items)
			if err != nil {
				writeError(w, d.Logger, err)
				return
			}
			resp.Items = rendered
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
