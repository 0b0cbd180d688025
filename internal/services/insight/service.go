// Package insight produces narrative portfolio analyses with an LLM.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/interfaces"
	"github.com/bobmcallan/investflow/internal/models"
)

// Placeholder texts returned instead of an analysis.
const (
	FallbackNotConfigured = "Insight generation is not configured. Set a Gemini API key to enable it."
	FallbackEmpty         = "The analysis could not be generated right now."
	FallbackError         = "An error occurred while contacting the AI. Please try again later."
)

// Service implements InsightService
type Service struct {
	gemini interfaces.GeminiClient
	md     goldmark.Markdown
	logger *common.Logger
}

var _ interfaces.InsightService = (*Service)(nil)

// NewService creates an insight service. A nil client yields the
// not-configured placeholder for every request.
func NewService(gemini interfaces.GeminiClient, logger *common.Logger) *Service {
	return &Service{
		gemini: gemini,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger: logger,
	}
}

// Generate returns an analysis of the holdings. It never fails: any
// problem produces a placeholder with Fallback set.
func (s *Service) Generate(ctx context.Context, holdings []models.Holding, stats models.PortfolioStats) *models.Insight {
	if s.gemini == nil {
		return s.result(FallbackNotConfigured, true)
	}

	prompt, err := BuildPrompt(holdings, stats)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build insight prompt")
		return s.result(FallbackError, true)
	}

	text, err := s.gemini.GenerateContent(ctx, prompt)
	if err != nil {
		s.logger.Warn().Err(err).Int("holdings", len(holdings)).Msg("Insight generation failed")
		return s.result(FallbackError, true)
	}
	if strings.TrimSpace(text) == "" {
		return s.result(FallbackEmpty, true)
	}

	s.logger.Info().Int("holdings", len(holdings)).Int("length", len(text)).Msg("Insight generated")
	return s.result(text, false)
}

func (s *Service) result(markdown string, fallback bool) *models.Insight {
	insight := &models.Insight{Markdown: markdown, Fallback: fallback}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to render insight markdown")
		return insight
	}
	insight.HTML = buf.String()
	return insight
}

// Summary is the portfolio digest sent to the model
type Summary struct {
	TotalValue  float64          `json:"totalValue"`
	GainPercent float64          `json:"gainPercent"`
	Holdings    []HoldingSummary `json:"holdings"`
}

// HoldingSummary describes one holding by its weight and performance
type HoldingSummary struct {
	Ticker string           `json:"ticker"`
	Type   models.AssetType `json:"type"`
	Sector string           `json:"sector"`
	Weight string           `json:"weight"`
	Gain   string           `json:"gain"`
}

// Summarize builds the digest. Weights are shares of the total value and
// gains are relative to the average price, both as two-decimal percent
// strings; either is "0%" when its denominator is zero.
func Summarize(holdings []models.Holding, stats models.PortfolioStats) Summary {
	summary := Summary{
		TotalValue:  stats.TotalValue,
		GainPercent: stats.TotalGainPercent,
		Holdings:    make([]HoldingSummary, 0, len(holdings)),
	}
	for _, h := range holdings {
		weight := "0%"
		if stats.TotalValue > 0 {
			weight = percent(h.TotalValue() / stats.TotalValue * 100)
		}
		gain := "0%"
		if h.AveragePrice > 0 {
			gain = percent(h.GainPercent())
		}
		summary.Holdings = append(summary.Holdings, HoldingSummary{
			Ticker: h.Asset.Ticker,
			Type:   h.Asset.Type,
			Sector: h.Asset.Sector,
			Weight: weight,
			Gain:   gain,
		})
	}
	return summary
}

func percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// BuildPrompt renders the analysis request for a portfolio
func BuildPrompt(holdings []models.Holding, stats models.PortfolioStats) (string, error) {
	data, err := json.MarshalIndent(Summarize(holdings, stats), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal portfolio summary: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are a senior financial advisor (CFA level).\n")
	sb.WriteString("Analyze the following investment portfolio, given as JSON, and write a report in Markdown.\n\n")
	sb.WriteString("Portfolio data:\n")
	sb.Write(data)
	sb.WriteString("\n\nThe report must contain:\n")
	sb.WriteString("1. **Risk Analysis**: assess diversification across sectors and asset classes.\n")
	sb.WriteString("2. **Strengths**: what is carrying the portfolio.\n")
	sb.WriteString("3. **Points of Attention**: holdings with very poor performance or overallocation.\n")
	sb.WriteString("4. **Practical Suggestions**: 3 concrete rebalancing or protection actions.\n\n")
	sb.WriteString("Be direct and professional, and use rich formatting (bold, lists).\n")
	return sb.String(), nil
}
