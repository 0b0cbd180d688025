package server

import (
	"net/http"

	"github.com/bobmcallan/investflow/internal/models"
	"github.com/bobmcallan/investflow/internal/services/portfolio"
)

func (s *Server) handlePortfolioStats(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	summary, err := s.app.PortfolioService.Summary(r.Context(), sess.UserID)
	if err != nil {
		WriteAppError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) handlePortfolioAllocation(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	slices, err := s.app.PortfolioService.Allocation(r.Context(), sess.UserID)
	if err != nil {
		WriteAppError(w, s.logger, err)
		return
	}
	if slices == nil {
		slices = []models.AllocationSlice{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"allocation": slices})
}

// handlePortfolioInsight handles POST /api/portfolio/insight. Generation
// problems come back as fallback text with status 200.
func (s *Server) handlePortfolioInsight(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	holdings, err := s.app.PortfolioService.Holdings(ctx, sess.UserID)
	if err != nil {
		WriteAppError(w, s.logger, err)
		return
	}
	// Stats come from the same snapshot as the holdings sent to the model.
	stats := portfolio.ComputeStats(holdings, s.app.Config.Currency())

	WriteJSON(w, http.StatusOK, s.app.InsightService.Generate(ctx, holdings, stats))
}
