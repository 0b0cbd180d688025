// Package portfolio provides portfolio management services: aggregation,
// reconciliation of broker imports and the per-owner holding workspace.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bobmcallan/investflow/internal/apperr"
	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/interfaces"
	"github.com/bobmcallan/investflow/internal/models"
)

// Service implements PortfolioService
type Service struct {
	store    interfaces.HoldingStore
	feed     interfaces.PositionFeed
	validate *validator.Validate
	currency models.Currency
	logger   *common.Logger
	now      func() time.Time

	mu         sync.Mutex
	workspaces map[string]*workspace
}

var _ interfaces.PortfolioService = (*Service)(nil)

// NewService creates a new portfolio service
func NewService(
	store interfaces.HoldingStore,
	feed interfaces.PositionFeed,
	currency models.Currency,
	logger *common.Logger,
) *Service {
	return &Service{
		store:      store,
		feed:       feed,
		validate:   common.NewValidator(),
		currency:   currency,
		logger:     logger,
		now:        time.Now,
		workspaces: make(map[string]*workspace),
	}
}

func (s *Service) workspace(ownerID string) *workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workspaces[ownerID]
	if !ok {
		w = newWorkspace()
		s.workspaces[ownerID] = w
	}
	return w
}

// Load replaces the owner's workspace with the holdings in the store. A
// failed fetch leaves the previous workspace untouched.
func (s *Service) Load(ctx context.Context, ownerID string) ([]models.Holding, error) {
	if ownerID == "" {
		return nil, apperr.ErrUnauthorized
	}
	w := s.workspace(ownerID)
	if err := w.acquire(ctx); err != nil {
		return nil, err
	}
	defer w.release()

	return s.load(ctx, ownerID, w)
}

// load fetches and commits. The caller holds the workspace.
func (s *Service) load(ctx context.Context, ownerID string, w *workspace) ([]models.Holding, error) {
	holdings, err := s.store.FetchAll(ctx, ownerID)
	if err != nil {
		s.logger.Error().Err(err).Str("owner", ownerID).Msg("Failed to load holdings")
		return nil, err
	}
	w.commit(holdings)
	s.logger.Info().Str("owner", ownerID).Int("holdings", len(holdings)).Msg("Workspace loaded")

	out, _ := w.snapshot()
	return out, nil
}

// ensureLoaded loads the workspace on first use. The caller holds it.
func (s *Service) ensureLoaded(ctx context.Context, ownerID string, w *workspace) ([]models.Holding, error) {
	if current, loaded := w.snapshot(); loaded {
		return current, nil
	}
	return s.load(ctx, ownerID, w)
}

// Clear drops the owner's workspace. A mutation still in flight commits
// into the detached workspace and is discarded.
func (s *Service) Clear(ownerID string) {
	s.mu.Lock()
	delete(s.workspaces, ownerID)
	s.mu.Unlock()
	s.logger.Debug().Str("owner", ownerID).Msg("Workspace cleared")
}

// Holdings returns a copy of the owner's workspace
func (s *Service) Holdings(ctx context.Context, ownerID string) ([]models.Holding, error) {
	if ownerID == "" {
		return nil, apperr.ErrUnauthorized
	}
	w := s.workspace(ownerID)
	if current, loaded := w.snapshot(); loaded {
		return current, nil
	}

	if err := w.acquire(ctx); err != nil {
		return nil, err
	}
	defer w.release()
	return s.ensureLoaded(ctx, ownerID, w)
}

// SaveHolding validates and writes one holding, then updates the
// workspace. A holding whose ticker is already present replaces that
// holding and keeps its ID.
func (s *Service) SaveHolding(ctx context.Context, ownerID string, h models.Holding) (*models.Holding, error) {
	if ownerID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if err := s.validate.Struct(h); err != nil {
		return nil, apperr.Validation(common.DescribeValidation(err))
	}

	w := s.workspace(ownerID)
	if err := w.acquire(ctx); err != nil {
		return nil, err
	}
	defer w.release()

	current, err := s.ensureLoaded(ctx, ownerID, w)
	if err != nil {
		return nil, err
	}

	// An edit that renames the ticker replaces the record it was read from.
	var renamed *models.Holding
	if h.ID != "" {
		kept := make([]models.Holding, 0, len(current))
		for _, existing := range current {
			if existing.ID == h.ID && existing.Asset.Ticker != h.Asset.Ticker {
				old := existing
				renamed = &old
				continue
			}
			kept = append(kept, existing)
		}
		current = kept
	}

	h.LastUpdated = s.now()
	merged := Merge(current, []models.Holding{h})
	plan := PersistencePlan(ownerID, merged)

	var saved models.Holding
	for _, p := range plan {
		if p.Asset.Ticker == h.Asset.Ticker {
			saved = p
			break
		}
	}

	if err := s.store.UpsertOne(ctx, ownerID, saved); err != nil {
		s.logger.Error().Err(err).Str("owner", ownerID).Str("ticker", saved.Asset.Ticker).Msg("Failed to save holding")
		return nil, err
	}

	// A synced key follows its ticker, so a rename leaves the old record behind.
	if renamed != nil && renamed.ID != saved.ID {
		if err := s.store.RemoveOne(ctx, renamed.ID); err != nil {
			s.logger.Error().Err(err).Str("owner", ownerID).Str("id", renamed.ID).Msg("Failed to remove renamed holding")
			w.commit(append(plan, *renamed))
			return nil, err
		}
	}
	w.commit(plan)

	s.logger.Info().Str("owner", ownerID).Str("id", saved.ID).Str("ticker", saved.Asset.Ticker).Msg("Holding saved")
	return &saved, nil
}

// RemoveHolding deletes a holding from the store and the workspace. Only
// holdings in the owner's workspace can be removed.
func (s *Service) RemoveHolding(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return apperr.ErrUnauthorized
	}
	w := s.workspace(ownerID)
	if err := w.acquire(ctx); err != nil {
		return err
	}
	defer w.release()

	current, err := s.ensureLoaded(ctx, ownerID, w)
	if err != nil {
		return err
	}

	idx := -1
	for i, h := range current {
		if h.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperr.WithMessage(apperr.ErrNotFound, fmt.Sprintf("Holding %q not found", id))
	}

	if err := s.store.RemoveOne(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("owner", ownerID).Str("id", id).Msg("Failed to remove holding")
		return err
	}

	remaining := make([]models.Holding, 0, len(current)-1)
	remaining = append(remaining, current[:idx]...)
	remaining = append(remaining, current[idx+1:]...)
	w.commit(remaining)

	s.logger.Info().Str("owner", ownerID).Str("id", id).Msg("Holding removed")
	return nil
}

// Import fetches open positions from the broker, merges them into the
// workspace and writes the whole merged set in one batch. The workspace is
// only updated once the batch has been written. At most one import runs
// per owner; a second concurrent import fails with ErrImportInProgress,
// while other mutations in flight only delay it.
func (s *Service) Import(ctx context.Context, ownerID string, req interfaces.ImportRequest) (*models.ImportResult, error) {
	if ownerID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if req.APIKey == "" {
		return nil, apperr.Validation("API key is required.")
	}
	if s.feed == nil {
		return nil, apperr.WithMessage(apperr.ErrInternal, "No broker is configured.")
	}

	w := s.workspace(ownerID)
	if !w.importing.CompareAndSwap(false, true) {
		return nil, apperr.ErrImportInProgress
	}
	defer w.importing.Store(false)

	if err := w.acquire(ctx); err != nil {
		return nil, err
	}
	defer w.release()

	current, err := s.ensureLoaded(ctx, ownerID, w)
	if err != nil {
		return nil, err
	}

	start := s.now()
	raws, err := s.feed.FetchPositions(ctx, req.APIKey, req.Demo)
	if err != nil {
		s.logger.Warn().Err(err).Str("owner", ownerID).Bool("demo", req.Demo).Msg("Broker fetch failed")
		return nil, err
	}

	now := s.now()
	incoming := NormalizeBatch(raws, SourceTrading212, now)

	result := &models.ImportResult{Source: SourceTrading212, Fetched: len(incoming)}
	seen := make(map[string]bool, len(current))
	for _, h := range current {
		seen[h.Asset.Ticker] = true
	}
	for _, h := range incoming {
		if seen[h.Asset.Ticker] {
			result.Updated++
		} else {
			result.Added++
			seen[h.Asset.Ticker] = true
		}
	}

	// Incoming holdings carry the import time; untouched ones keep theirs.
	plan := PersistencePlan(ownerID, Merge(current, incoming))

	if len(plan) > 0 {
		if err := s.store.UpsertBatch(ctx, ownerID, plan); err != nil {
			s.logger.Error().Err(err).Str("owner", ownerID).Int("records", len(plan)).Msg("Import batch write failed")
			return nil, err
		}
	}
	w.commit(plan)

	result.Holdings = make([]models.Holding, len(plan))
	copy(result.Holdings, plan)

	s.logger.Info().
		Str("owner", ownerID).
		Int("fetched", result.Fetched).
		Int("added", result.Added).
		Int("updated", result.Updated).
		Dur("elapsed", s.now().Sub(start)).
		Msg("Import complete")
	return result, nil
}

// Summary computes portfolio totals with display strings
func (s *Service) Summary(ctx context.Context, ownerID string) (*models.PortfolioSummary, error) {
	holdings, err := s.Holdings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(holdings, s.currency)
	return &models.PortfolioSummary{
		Stats: stats,
		Display: models.StatsDisplay{
			TotalValue:       common.FormatMoney(stats.TotalValue, stats.Currency),
			TotalCost:        common.FormatMoney(stats.TotalCost, stats.Currency),
			TotalGain:        common.FormatMoney(stats.TotalGain, stats.Currency),
			TotalGainPercent: common.FormatPercent(stats.TotalGainPercent),
		},
		Holdings: len(holdings),
	}, nil
}

// Allocation groups the owner's current value by sector
func (s *Service) Allocation(ctx context.Context, ownerID string) ([]models.AllocationSlice, error) {
	holdings, err := s.Holdings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return ComputeAllocation(holdings), nil
}

// Currency returns the display currency of computed stats.
func (s *Service) Currency() models.Currency {
	return s.currency
}

// IsCanceled reports whether err came from a canceled or expired context
// while waiting for the workspace.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
