package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/investflow/internal/apperr"
	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/interfaces"
	"github.com/bobmcallan/investflow/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// holdingRecord is the stored form of a holding. The record key is the
// holding ID; it is repeated in holding_id because SurrealDB returns the
// key as a record reference rather than a string.
type holdingRecord struct {
	HoldingID    string       `json:"holding_id"`
	UserID       string       `json:"user_id"`
	Asset        models.Asset `json:"asset"`
	Quantity     float64      `json:"quantity"`
	AveragePrice float64      `json:"average_price"`
	CurrentPrice float64      `json:"current_price"`
	LastUpdated  time.Time    `json:"last_updated"`
}

func toRecord(ownerID string, h models.Holding) holdingRecord {
	updated := h.LastUpdated
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	return holdingRecord{
		HoldingID:    h.ID,
		UserID:       ownerID,
		Asset:        h.Asset,
		Quantity:     h.Quantity,
		AveragePrice: h.AveragePrice,
		CurrentPrice: h.CurrentPrice,
		LastUpdated:  updated,
	}
}

func (r holdingRecord) holding() models.Holding {
	return models.Holding{
		ID:           r.HoldingID,
		Asset:        r.Asset,
		Quantity:     r.Quantity,
		AveragePrice: r.AveragePrice,
		CurrentPrice: r.CurrentPrice,
		LastUpdated:  r.LastUpdated,
	}
}

// HoldingStore implements interfaces.HoldingStore.
type HoldingStore struct {
	db      *surrealdb.DB
	logger  *common.Logger
	timeout time.Duration
}

func NewHoldingStore(db *surrealdb.DB, logger *common.Logger, timeout time.Duration) *HoldingStore {
	return &HoldingStore{
		db:      db,
		logger:  logger,
		timeout: timeout,
	}
}

// FetchAll returns the owner's holdings ordered by ticker.
func (s *HoldingStore) FetchAll(ctx context.Context, ownerID string) ([]models.Holding, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	sql := "SELECT * FROM holding WHERE user_id = $user_id ORDER BY asset.ticker ASC"
	vars := map[string]any{"user_id": ownerID}

	results, err := surrealdb.Query[[]holdingRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStoreLoad, fmt.Errorf("failed to list holdings: %w", err))
	}

	holdings := []models.Holding{}
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			holdings = append(holdings, r.holding())
		}
	}
	s.logger.Debug().Str("user_id", ownerID).Int("count", len(holdings)).Msg("Holdings fetched")
	return holdings, nil
}

func (s *HoldingStore) UpsertOne(ctx context.Context, ownerID string, h models.Holding) error {
	if h.ID == "" {
		return apperr.Wrap(apperr.ErrStoreSave, fmt.Errorf("holding %s has no id", h.Ticker()))
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	sql := "UPSERT type::record('holding', $id) CONTENT $holding"
	vars := map[string]any{"id": h.ID, "holding": toRecord(ownerID, h)}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]holdingRecord](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return apperr.Wrap(apperr.ErrStoreSave, fmt.Errorf("failed to save holding %s after retries: %w", h.ID, lastErr))
}

func (s *HoldingStore) RemoveOne(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := surrealdb.Delete[holdingRecord](ctx, s.db, surrealmodels.NewRecordID(holdingTable, id))
	if err != nil && !isNotFoundError(err) {
		return apperr.Wrap(apperr.ErrStoreDelete, fmt.Errorf("failed to delete holding %s: %w", id, err))
	}
	return nil
}

// UpsertBatch writes every holding inside a single transaction.
func (s *HoldingStore) UpsertBatch(ctx context.Context, ownerID string, hs []models.Holding) error {
	if len(hs) == 0 {
		return nil
	}
	records := make([]holdingRecord, 0, len(hs))
	for _, h := range hs {
		if h.ID == "" {
			return apperr.Wrap(apperr.ErrStoreBatch, fmt.Errorf("holding %s has no id", h.Ticker()))
		}
		records = append(records, toRecord(ownerID, h))
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	sql := `BEGIN TRANSACTION;
FOR $h IN $records {
	UPSERT type::record('holding', $h.holding_id) CONTENT $h;
};
COMMIT TRANSACTION;`
	vars := map[string]any{"records": records}

	results, err := surrealdb.Query[any](ctx, s.db, sql, vars)
	if err != nil {
		return apperr.Wrap(apperr.ErrStoreBatch, fmt.Errorf("failed to commit %d holdings: %w", len(records), err))
	}
	if results != nil {
		for _, r := range *results {
			if r.Status != "" && r.Status != "OK" {
				return apperr.Wrap(apperr.ErrStoreBatch, fmt.Errorf("batch statement failed with status %s", r.Status))
			}
		}
	}

	s.logger.Info().Str("user_id", ownerID).Int("count", len(records)).Msg("Holdings batch committed")
	return nil
}

// isNotFoundError reports whether err describes a missing record.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")
}

// Compile-time check
var _ interfaces.HoldingStore = (*HoldingStore)(nil)
