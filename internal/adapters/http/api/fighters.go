package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/octagon/internal/domain/errs"
	"github.com/okian/octagon/internal/domain/types"
)

// FighterDependencies reads the fighter registry.
type FighterDependencies interface {
	Fighter(ctx context.Context, name string) (types.FighterResponse, error)
	SearchFighters(ctx context.Context, query string, limit int) (types.SearchResponse, error)
}

// FighterHandler handles fighter lookups.
type FighterHandler struct {
	deps FighterDependencies
}

// NewFighterHandler creates a new fighter handler.
func NewFighterHandler(deps FighterDependencies) *FighterHandler {
	return &FighterHandler{deps: deps}
}

// HandleGetFighter handles GET /fighters/{name} requests.
func (h *FighterHandler) HandleGetFighter(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_fighter"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/fighters/")
	if strings.TrimSpace(name) == "" {
		writeError(w, r, errs.NewKind(op, ErrBadRequest))
		return
	}
	f, err := h.deps.Fighter(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleSearch handles GET /fighters?query=&limit= requests.
func (h *FighterHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit, err := limitParam(r, "api.search_fighters")
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.deps.SearchFighters(r.Context(), r.URL.Query().Get("query"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
