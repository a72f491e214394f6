package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/complyline/screening/internal/api/respond"
	"github.com/complyline/screening/internal/model"
)

// Screener runs one screening transaction.
type Screener interface {
	Screen(ctx context.Context, name, searchType string) (*model.ScreeningRecord, error)
}

// ScreeningHandler handles POST /api/screenings.
type ScreeningHandler struct {
	screener Screener
}

// NewScreeningHandler creates the handler with its dependency.
func NewScreeningHandler(screener Screener) *ScreeningHandler {
	return &ScreeningHandler{screener: screener}
}

type screeningRequest struct {
	Name       string `json:"name"`
	SearchType string `json:"searchType"`
}

// CreateScreening decodes the request and runs the screening. Input
// validation is the only caller-visible failure; collaborator trouble
// surfaces as a degraded record, still 200.
func (h *ScreeningHandler) CreateScreening(w http.ResponseWriter, r *http.Request) {
	var req screeningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if req.SearchType == "" {
		req.SearchType = string(model.ClassPerson)
	}

	rec, err := h.screener.Screen(r.Context(), req.Name, req.SearchType)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		respond.WriteInternalError(w, "screening failed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, rec)
}
