// Package models defines data structures for InvestFlow
package models

import "strings"

// AssetType classifies a tradable instrument
type AssetType string

const (
	AssetTypeEquity AssetType = "equity"
	AssetTypeFund   AssetType = "fund"
	AssetTypeREIT   AssetType = "reit"
	AssetTypeCrypto AssetType = "crypto"
	AssetTypeCash   AssetType = "cash"
)

// Valid reports whether t is one of the known asset types.
func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeEquity, AssetTypeFund, AssetTypeREIT, AssetTypeCrypto, AssetTypeCash:
		return true
	}
	return false
}

// Currency is a holding or display currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyBRL Currency = "BRL"
)

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyBRL:
		return true
	}
	return false
}

// ParseCurrency upper-cases s and falls back to USD for unsupported codes.
func ParseCurrency(s string) Currency {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return CurrencyUSD
	}
	return c
}

// Asset describes a tradable instrument. Ticker is the natural key within
// one owner's holdings.
type Asset struct {
	Ticker   string    `json:"ticker" validate:"required"`
	Name     string    `json:"name"`
	Type     AssetType `json:"type" validate:"required,asset_type"`
	Sector   string    `json:"sector"`
	Currency Currency  `json:"currency" validate:"required,currency"`
	LogoURL  string    `json:"logo_url,omitempty"`
}
