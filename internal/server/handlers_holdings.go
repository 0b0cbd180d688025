package server

import (
	"net/http"

	"github.com/bobmcallan/investflow/internal/interfaces"
	"github.com/bobmcallan/investflow/internal/models"
)

// holdingsResponse lists holdings with their derived values.
type holdingsResponse struct {
	Holdings []models.HoldingView `json:"holdings"`
}

func newHoldingsResponse(hs []models.Holding) holdingsResponse {
	views := make([]models.HoldingView, 0, len(hs))
	for _, h := range hs {
		views = append(views, models.NewHoldingView(h))
	}
	return holdingsResponse{Holdings: views}
}

// handleHoldings handles GET /api/holdings (list) and POST /api/holdings (save one).
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		holdings, err := s.app.PortfolioService.Holdings(r.Context(), sess.UserID)
		if err != nil {
			WriteAppError(w, s.logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, newHoldingsResponse(holdings))
		return
	}

	var h models.Holding
	if !DecodeJSON(w, r, &h) {
		return
	}
	saved, err := s.app.PortfolioService.SaveHolding(r.Context(), sess.UserID, h)
	if err != nil {
		WriteAppError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, models.NewHoldingView(*saved))
}

// handleHoldingDelete handles DELETE /api/holdings/{id}.
func (s *Server) handleHoldingDelete(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	if err := s.app.PortfolioService.RemoveHolding(r.Context(), sess.UserID, id); err != nil {
		WriteAppError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHoldingsImport handles POST /api/holdings/import.
func (s *Server) handleHoldingsImport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req interfaces.ImportRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.app.PortfolioService.Import(r.Context(), sess.UserID, req)
	if err != nil {
		WriteAppError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleHoldingsReload handles POST /api/holdings/reload. On failure the
// previous workspace stays in place.
func (s *Server) handleHoldingsReload(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	holdings, err := s.app.PortfolioService.Load(r.Context(), sess.UserID)
	if err != nil {
		WriteAppError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, newHoldingsResponse(holdings))
}
