package insight

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/models"
	tcommon "github.com/bobmcallan/investflow/tests/common"
)

func sampleHoldings() ([]models.Holding, models.PortfolioStats) {
	hs := []models.Holding{
		{
			ID:           "u1_AAPL",
			Asset:        models.Asset{Ticker: "AAPL", Name: "Apple", Type: models.AssetTypeEquity, Sector: "Tech", Currency: models.CurrencyUSD},
			Quantity:     10,
			AveragePrice: 100,
			CurrentPrice: 160,
		},
		{
			ID:           "u1_MSFT",
			Asset:        models.Asset{Ticker: "MSFT", Name: "Microsoft", Type: models.AssetTypeEquity, Sector: "Tech", Currency: models.CurrencyUSD},
			Quantity:     5,
			AveragePrice: 200,
			CurrentPrice: 210,
		},
		{
			ID:           "u1_GIFT",
			Asset:        models.Asset{Ticker: "GIFT", Type: models.AssetTypeCash, Sector: "Cash", Currency: models.CurrencyUSD},
			Quantity:     0,
			AveragePrice: 0,
			CurrentPrice: 1,
		},
	}
	stats := models.PortfolioStats{TotalValue: 2650, TotalCost: 2000, TotalGain: 650, TotalGainPercent: 32.5, Currency: models.CurrencyUSD}
	return hs, stats
}

func TestSummarize(t *testing.T) {
	hs, stats := sampleHoldings()
	s := Summarize(hs, stats)

	assert.Equal(t, 2650.0, s.TotalValue)
	assert.Equal(t, 32.5, s.GainPercent)
	require.Len(t, s.Holdings, 3)

	assert.Equal(t, HoldingSummary{Ticker: "AAPL", Type: models.AssetTypeEquity, Sector: "Tech", Weight: "60.38%", Gain: "60.00%"}, s.Holdings[0])
	assert.Equal(t, "39.62%", s.Holdings[1].Weight)
	assert.Equal(t, "5.00%", s.Holdings[1].Gain)
	assert.Equal(t, "0.00%", s.Holdings[2].Weight)
	assert.Equal(t, "0%", s.Holdings[2].Gain)
}

func TestSummarize_ZeroTotalValue(t *testing.T) {
	hs, _ := sampleHoldings()
	s := Summarize(hs, models.PortfolioStats{})
	for _, h := range s.Holdings {
		assert.Equal(t, "0%", h.Weight)
	}
}

func TestBuildPrompt(t *testing.T) {
	hs, stats := sampleHoldings()
	prompt, err := BuildPrompt(hs, stats)
	require.NoError(t, err)

	for _, section := range []string{"Risk Analysis", "Strengths", "Points of Attention", "Practical Suggestions", "3 concrete"} {
		assert.Contains(t, prompt, section)
	}

	start := strings.Index(prompt, "{")
	end := strings.LastIndex(prompt, "}")
	require.True(t, start >= 0 && end > start)
	var decoded Summary
	require.NoError(t, json.Unmarshal([]byte(prompt[start:end+1]), &decoded))
	assert.Equal(t, "AAPL", decoded.Holdings[0].Ticker)
}

func TestGenerate_Success(t *testing.T) {
	hs, stats := sampleHoldings()
	gemini := &tcommon.MockGeminiClient{Response: "## Risk Analysis\n\n**Concentrated** in tech."}
	svc := NewService(gemini, common.NewSilentLogger())

	insight := svc.Generate(context.Background(), hs, stats)

	assert.False(t, insight.Fallback)
	assert.Equal(t, gemini.Response, insight.Markdown)
	assert.Contains(t, insight.HTML, "<h2>Risk Analysis</h2>")
	assert.Contains(t, insight.HTML, "<strong>Concentrated</strong>")
	assert.Equal(t, 1, gemini.Calls)
	assert.Contains(t, gemini.LastPrompt, `"ticker": "MSFT"`)
}

func TestGenerate_ErrorBecomesFallback(t *testing.T) {
	hs, stats := sampleHoldings()
	gemini := &tcommon.MockGeminiClient{Err: errors.New("quota exceeded")}
	svc := NewService(gemini, common.NewSilentLogger())

	insight := svc.Generate(context.Background(), hs, stats)

	assert.True(t, insight.Fallback)
	assert.Equal(t, FallbackError, insight.Markdown)
	assert.NotEmpty(t, insight.HTML)
}

func TestGenerate_EmptyResponse(t *testing.T) {
	svc := NewService(&tcommon.MockGeminiClient{Response: "  \n"}, common.NewSilentLogger())
	insight := svc.Generate(context.Background(), nil, models.PortfolioStats{})
	assert.True(t, insight.Fallback)
	assert.Equal(t, FallbackEmpty, insight.Markdown)
}

func TestGenerate_NotConfigured(t *testing.T) {
	svc := NewService(nil, common.NewSilentLogger())
	insight := svc.Generate(context.Background(), nil, models.PortfolioStats{})
	assert.True(t, insight.Fallback)
	assert.Equal(t, FallbackNotConfigured, insight.Markdown)
}
