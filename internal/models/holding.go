package models

import "time"

// Holding is one owner's position in an asset
type Holding struct {
	ID           string    `json:"id"`
	Asset        Asset     `json:"asset"`
	Quantity     float64   `json:"quantity" validate:"finite,gte=0"`
	AveragePrice float64   `json:"average_price" validate:"finite,gte=0"`
	CurrentPrice float64   `json:"current_price" validate:"finite,gte=0"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Ticker is shorthand for h.Asset.Ticker.
func (h Holding) Ticker() string {
	return h.Asset.Ticker
}

// TotalValue is quantity at the current price.
func (h Holding) TotalValue() float64 {
	return h.Quantity * h.CurrentPrice
}

// TotalCost is quantity at the average price.
func (h Holding) TotalCost() float64 {
	return h.Quantity * h.AveragePrice
}

// Gain is the unrealised gain of the position.
func (h Holding) Gain() float64 {
	return (h.CurrentPrice - h.AveragePrice) * h.Quantity
}

// GainPercent is the gain relative to the average price, 0 when the
// average price is 0.
func (h Holding) GainPercent() float64 {
	if h.AveragePrice == 0 {
		return 0
	}
	return (h.CurrentPrice - h.AveragePrice) / h.AveragePrice * 100
}

// HoldingView is a holding with its derived values, as returned by the API
type HoldingView struct {
	Holding
	TotalValue  float64 `json:"total_value"`
	TotalCost   float64 `json:"total_cost"`
	Gain        float64 `json:"gain"`
	GainPercent float64 `json:"gain_percent"`
}

// NewHoldingView computes the derived fields for h.
func NewHoldingView(h Holding) HoldingView {
	return HoldingView{
		Holding:     h,
		TotalValue:  h.TotalValue(),
		TotalCost:   h.TotalCost(),
		Gain:        h.Gain(),
		GainPercent: h.GainPercent(),
	}
}
