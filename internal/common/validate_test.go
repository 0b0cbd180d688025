package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/investflow/internal/models"
)

func validHolding() models.Holding {
	return models.Holding{
		ID: "h1",
		Asset: models.Asset{
			Ticker:   "AAPL",
			Name:     "Apple",
			Type:     models.AssetTypeEquity,
			Sector:   "Tech",
			Currency: models.CurrencyUSD,
		},
		Quantity:     10,
		AveragePrice: 150,
		CurrentPrice: 175,
	}
}

func TestValidator_AcceptsValidHolding(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Struct(validHolding()))
}

func TestValidator_RejectsUnknownAssetTypeAndCurrency(t *testing.T) {
	v := NewValidator()
	h := validHolding()
	h.Asset.Type = "bond"
	h.Asset.Currency = "JPY"

	err := v.Struct(h)
	require.Error(t, err)
	msg := DescribeValidation(err)
	assert.Contains(t, msg, "asset.type must satisfy asset_type")
	assert.Contains(t, msg, "asset.currency must satisfy currency")
}

func TestValidator_RejectsNonFiniteAndNegative(t *testing.T) {
	v := NewValidator()

	h := validHolding()
	h.CurrentPrice = math.NaN()
	err := v.Struct(h)
	require.Error(t, err)
	assert.Contains(t, DescribeValidation(err), "current_price must satisfy finite")

	h = validHolding()
	h.Quantity = -1
	err = v.Struct(h)
	require.Error(t, err)
	assert.Contains(t, DescribeValidation(err), "quantity must satisfy gte=0")
}

func TestValidator_MissingTicker(t *testing.T) {
	v := NewValidator()
	h := validHolding()
	h.Asset.Ticker = ""

	err := v.Struct(h)
	require.Error(t, err)
	assert.Equal(t, "asset.ticker is required", DescribeValidation(err))
}

func TestValidator_RawPosition(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Struct(models.RawPosition{Ticker: "KO", Quantity: 3, AveragePrice: 55, CurrentPrice: 60}))
	assert.Error(t, v.Struct(models.RawPosition{Quantity: 3}))
	assert.Error(t, v.Struct(models.RawPosition{Ticker: "KO", Quantity: math.Inf(1)}))
}
