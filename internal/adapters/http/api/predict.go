package api

import (
	"net/http"

	"github.com/okian/octagon/internal/domain/types"
)

// PredictHandler serves POST /predict and POST /explain.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.PredictRequest
	if err := decode(w, r, "api.predict", &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.deps.Predict(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleExplain handles POST /explain requests.
func (h *PredictHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.PredictRequest
	if err := decode(w, r, "api.explain", &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.deps.Explain(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
