package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/octagon/internal/domain/errs"
	"github.com/okian/octagon/internal/domain/types"
)

// OfficialDependencies lists officials by frequency.
type OfficialDependencies interface {
	TopOfficials(ctx context.Context, limit int) (types.OfficialsResponse, error)
}

// OfficialHandler handles official listings.
type OfficialHandler struct {
	deps OfficialDependencies
}

// NewOfficialHandler creates a new official handler.
func NewOfficialHandler(deps OfficialDependencies) *OfficialHandler {
	return &OfficialHandler{deps: deps}
}

// HandleTopOfficials handles GET /referees?limit=N requests.
func (h *OfficialHandler) HandleTopOfficials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit, err := limitParam(r, "api.top_officials")
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.deps.TopOfficials(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// limitParam parses ?limit; absent means 0 (the service default).
func limitParam(r *http.Request, op string) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errs.NewKind(op, ErrBadRequest)
	}
	return n, nil
}
