package portfolio

import (
	"strings"

	"github.com/bobmcallan/investflow/internal/models"
)

// Merge folds incoming holdings into existing by ticker. A match replaces
// the first existing holding with that ticker at its position, keeping the
// existing ID unless it is empty; unmatched holdings are appended in
// incoming order. Neither input is modified and the result is stable
// under repetition: Merge(Merge(e, i), i) equals Merge(e, i).
func Merge(existing, incoming []models.Holding) []models.Holding {
	result := make([]models.Holding, len(existing), len(existing)+len(incoming))
	copy(result, existing)

	for _, in := range incoming {
		idx := -1
		for i := range result {
			if result[i].Asset.Ticker == in.Asset.Ticker {
				idx = i
				break
			}
		}
		if idx < 0 {
			result = append(result, in)
			continue
		}

		merged := in
		if result[idx].ID != "" {
			merged.ID = result[idx].ID
		}
		if merged.LastUpdated.IsZero() {
			merged.LastUpdated = result[idx].LastUpdated
		}
		result[idx] = merged
	}
	return result
}

// PersistenceID is the durable key of a holding that came from an import
// or sync: one record per owner and ticker.
func PersistenceID(ownerID, ticker string) string {
	return ownerID + "_" + ticker
}

// IsImportID reports whether id was generated by the import normalizer.
func IsImportID(id string) bool {
	return strings.HasPrefix(id, SourceTrading212+"-")
}

// IsSyncedID reports whether id is a persistence key of ownerID, that is
// of the form "<ownerID>_<ticker>".
func IsSyncedID(ownerID, id string) bool {
	return ownerID != "" && strings.HasPrefix(id, ownerID+"_")
}

// StorageID returns the ID a holding is written under: its own opaque ID,
// or the persistence key of its ticker when the ID is empty, was generated
// by the normalizer, or is a persistence key derived from another ticker.
func StorageID(ownerID string, h models.Holding) string {
	if h.ID == "" || IsImportID(h.ID) || IsSyncedID(ownerID, h.ID) {
		return PersistenceID(ownerID, h.Asset.Ticker)
	}
	return h.ID
}

// PersistencePlan returns a copy of merged with every holding keyed by its
// storage ID. This is the exact set written by a batch upsert and the set
// committed to the workspace once the write succeeds.
func PersistencePlan(ownerID string, merged []models.Holding) []models.Holding {
	plan := make([]models.Holding, len(merged))
	for i, h := range merged {
		h.ID = StorageID(ownerID, h)
		plan[i] = h
	}
	return plan
}
