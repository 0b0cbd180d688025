package common

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/investflow/internal/models"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		currency models.Currency
		want     string
	}{
		{"usd thousands", 2650, models.CurrencyUSD, "$2,650.00"},
		{"usd rounding", 1234.565, models.CurrencyUSD, "$1,234.57"},
		{"usd negative", -650, models.CurrencyUSD, "-$650.00"},
		{"eur", 1000000.5, models.CurrencyEUR, "€1,000,000.50"},
		{"brl separators", 2650.25, models.CurrencyBRL, "R$2.650,25"},
		{"zero", 0, models.CurrencyUSD, "$0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(tt.amount, tt.currency))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "32.50%", FormatPercent(32.5))
	assert.Equal(t, "0.00%", FormatPercent(0))
	assert.Equal(t, "-12.35%", FormatPercent(-12.345))
}
