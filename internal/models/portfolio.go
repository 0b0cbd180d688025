package models

// PortfolioStats is a point-in-time aggregate over a set of holdings.
// Currency is a display label only; no conversion is applied across
// mixed-currency holdings.
type PortfolioStats struct {
	TotalValue       float64  `json:"total_value"`
	TotalCost        float64  `json:"total_cost"`
	TotalGain        float64  `json:"total_gain"`
	TotalGainPercent float64  `json:"total_gain_percent"`
	Currency         Currency `json:"currency"`
}

// AllocationSlice is the value held in one sector
type AllocationSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// StatsDisplay carries pre-formatted strings for the dashboard stat cards
type StatsDisplay struct {
	TotalValue       string `json:"total_value"`
	TotalCost        string `json:"total_cost"`
	TotalGain        string `json:"total_gain"`
	TotalGainPercent string `json:"total_gain_percent"`
}

// PortfolioSummary is the stats response: numbers plus display strings.
type PortfolioSummary struct {
	Stats    PortfolioStats `json:"stats"`
	Display  StatsDisplay   `json:"display"`
	Holdings int            `json:"holdings"`
}

// ImportResult reports the outcome of a broker import
type ImportResult struct {
	Source   string    `json:"source"`
	Fetched  int       `json:"fetched"`
	Added    int       `json:"added"`
	Updated  int       `json:"updated"`
	Holdings []Holding `json:"holdings"`
}

// Insight is a narrative analysis of a portfolio. Fallback is set when the
// text is a placeholder produced because generation failed.
type Insight struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html,omitempty"`
	Fallback bool   `json:"fallback"`
}
