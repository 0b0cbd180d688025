package common

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/investflow/internal/models"
)

// FormatMoney formats amount in the currency's conventional notation,
// e.g. "$1,234.56" or "R$1.234,56". Amounts are rounded half away from
// zero to the currency's minor unit.
func FormatMoney(amount float64, currency models.Currency) string {
	cur := money.GetCurrency(string(currency))
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// FormatPercent formats a percentage with two decimals and a % sign.
func FormatPercent(pct float64) string {
	return decimal.NewFromFloat(pct).StringFixed(2) + "%"
}
