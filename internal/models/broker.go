package models

// RawPosition is an open position as reported by the Trading212
// /equity/portfolio endpoint. It carries no name, sector or currency.
type RawPosition struct {
	Ticker          string  `json:"ticker" validate:"required"`
	Quantity        float64 `json:"quantity" validate:"finite,gte=0"`
	AveragePrice    float64 `json:"averagePrice" validate:"finite,gte=0"`
	CurrentPrice    float64 `json:"currentPrice" validate:"finite,gte=0"`
	PPL             float64 `json:"ppl"`
	FxPPL           float64 `json:"fxPpl"`
	InitialFillDate string  `json:"initialFillDate"`
	MaxBuy          float64 `json:"maxBuy"`
	MaxSell         float64 `json:"maxSell"`
	PieQuantity     float64 `json:"pieQuantity"`
}
