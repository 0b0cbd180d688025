package portfolio

import "github.com/bobmcallan/investflow/internal/models"

// ComputeStats totals a set of holdings. The currency is a display label;
// no conversion is applied. An empty set yields zeros and the gain
// percentage is 0 whenever the total cost is 0.
func ComputeStats(holdings []models.Holding, currency models.Currency) models.PortfolioStats {
	stats := models.PortfolioStats{Currency: currency}
	for _, h := range holdings {
		stats.TotalValue += h.TotalValue()
		stats.TotalCost += h.TotalCost()
	}
	stats.TotalGain = stats.TotalValue - stats.TotalCost
	if stats.TotalCost > 0 {
		stats.TotalGainPercent = stats.TotalGain / stats.TotalCost * 100
	}
	return stats
}

// ComputeAllocation groups current value by sector. Slices appear in the
// order their sector is first seen in holdings.
func ComputeAllocation(holdings []models.Holding) []models.AllocationSlice {
	index := make(map[string]int)
	var slices []models.AllocationSlice
	for _, h := range holdings {
		sector := h.Asset.Sector
		i, ok := index[sector]
		if !ok {
			i = len(slices)
			index[sector] = i
			slices = append(slices, models.AllocationSlice{Name: sector})
		}
		slices[i].Value += h.TotalValue()
	}
	return slices
}
