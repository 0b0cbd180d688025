package portfolio

import (
	"math"
	"testing"

	"github.com/bobmcallan/investflow/internal/models"
)

func approxEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func holding(ticker, sector string, qty, avg, cur float64) models.Holding {
	return models.Holding{
		ID: "id-" + ticker,
		Asset: models.Asset{
			Ticker:   ticker,
			Name:     ticker,
			Type:     models.AssetTypeEquity,
			Sector:   sector,
			Currency: models.CurrencyUSD,
		},
		Quantity:     qty,
		AveragePrice: avg,
		CurrentPrice: cur,
	}
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil, models.CurrencyUSD)
	if stats.TotalValue != 0 || stats.TotalCost != 0 || stats.TotalGain != 0 || stats.TotalGainPercent != 0 {
		t.Errorf("ComputeStats(nil) = %+v, want zeros", stats)
	}
	if stats.Currency != models.CurrencyUSD {
		t.Errorf("Currency = %q, want USD", stats.Currency)
	}
}

func TestComputeStats_GainIsValueMinusCost(t *testing.T) {
	sets := [][]models.Holding{
		{holding("AAPL", "Tech", 10, 100, 150)},
		{holding("A", "X", 3, 12.5, 9.75), holding("B", "Y", 0.5, 40000, 61000.25)},
		{holding("Z", "Z", 0, 10, 20)},
	}
	for _, hs := range sets {
		stats := ComputeStats(hs, models.CurrencyEUR)
		if !approxEqual(stats.TotalGain, stats.TotalValue-stats.TotalCost, 1e-9) {
			t.Errorf("TotalGain = %v, want %v", stats.TotalGain, stats.TotalValue-stats.TotalCost)
		}
	}
}

func TestComputeStats_ZeroCostGuard(t *testing.T) {
	hs := []models.Holding{
		holding("GIFT", "Misc", 10, 0, 5),
		holding("FREE", "Misc", 2, 0, 0),
	}
	stats := ComputeStats(hs, models.CurrencyUSD)

	if stats.TotalGainPercent != 0 {
		t.Errorf("TotalGainPercent = %v, want 0", stats.TotalGainPercent)
	}
	if math.IsNaN(stats.TotalGainPercent) || math.IsInf(stats.TotalGainPercent, 0) {
		t.Errorf("TotalGainPercent is not finite: %v", stats.TotalGainPercent)
	}
	if !approxEqual(stats.TotalValue, 50, 1e-9) {
		t.Errorf("TotalValue = %v, want 50", stats.TotalValue)
	}
}

func TestComputeAllocation_SumsToTotalValue(t *testing.T) {
	hs := []models.Holding{
		holding("AAPL", "Tech", 10, 100, 150),
		holding("KO", "Consumer", 20, 50, 60),
		holding("MSFT", "Tech", 5, 200, 210),
		holding("O", "", 7, 55, 52),
	}
	slices := ComputeAllocation(hs)
	stats := ComputeStats(hs, models.CurrencyUSD)

	var sum float64
	for _, s := range slices {
		sum += s.Value
	}
	if !approxEqual(sum, stats.TotalValue, 1e-9) {
		t.Errorf("allocation sum = %v, want %v", sum, stats.TotalValue)
	}
}

func TestComputeAllocation_FirstSeenOrder(t *testing.T) {
	hs := []models.Holding{
		holding("KO", "Consumer", 1, 1, 10),
		holding("AAPL", "Tech", 1, 1, 20),
		holding("PEP", "Consumer", 1, 1, 5),
		holding("BTCUSD", "Crypto", 1, 1, 30),
	}
	got := ComputeAllocation(hs)
	want := []models.AllocationSlice{
		{Name: "Consumer", Value: 15},
		{Name: "Tech", Value: 20},
		{Name: "Crypto", Value: 30},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Name != want[i].Name || !approxEqual(got[i].Value, want[i].Value, 1e-9) {
			t.Errorf("slice[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestComputeAllocation_Empty(t *testing.T) {
	if got := ComputeAllocation(nil); len(got) != 0 {
		t.Errorf("ComputeAllocation(nil) = %+v, want empty", got)
	}
}
