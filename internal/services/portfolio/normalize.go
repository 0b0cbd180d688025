package portfolio

import (
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/investflow/internal/models"
)

const (
	// SourceTrading212 tags holdings created from a Trading212 import.
	SourceTrading212 = "t212"

	// ImportedSector is the sector assigned to imported holdings, which
	// arrive without classification metadata.
	ImportedSector = "Imported (T212)"

	cryptoTickerMinLength = 6
)

// ClassifyTicker guesses an asset type from the ticker alone: crypto when
// the ticker contains "USD" or is longer than five characters, equity
// otherwise. This is a heuristic; the broker supplies no type metadata.
func ClassifyTicker(ticker string) models.AssetType {
	if strings.Contains(ticker, "USD") || len(ticker) >= cryptoTickerMinLength {
		return models.AssetTypeCrypto
	}
	return models.AssetTypeEquity
}

// Normalize converts a broker position into a holding. index is the
// position's ordinal within its batch and makes the generated ID unique
// even when a batch repeats a ticker. Currency is always USD. The result
// is not yet owner-scoped; PersistencePlan assigns the durable key.
func Normalize(raw models.RawPosition, sourceTag string, index int, now time.Time) models.Holding {
	return models.Holding{
		ID: fmt.Sprintf("%s-%s-%d", sourceTag, raw.Ticker, index),
		Asset: models.Asset{
			Ticker:   raw.Ticker,
			Name:     raw.Ticker,
			Type:     ClassifyTicker(raw.Ticker),
			Sector:   ImportedSector,
			Currency: models.CurrencyUSD,
		},
		Quantity:     raw.Quantity,
		AveragePrice: raw.AveragePrice,
		CurrentPrice: raw.CurrentPrice,
		LastUpdated:  now,
	}
}

// NormalizeBatch normalizes positions in order, stamping all of them with
// the same time.
func NormalizeBatch(raws []models.RawPosition, sourceTag string, now time.Time) []models.Holding {
	holdings := make([]models.Holding, 0, len(raws))
	for i, raw := range raws {
		holdings = append(holdings, Normalize(raw, sourceTag, i, now))
	}
	return holdings
}
