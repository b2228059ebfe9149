package token

import "time"

// Token is a creator token listing. Price and MarketCap are quoted values
// recorded by the issuing collaborator; no pricing engine runs here.
type Token struct {
	ID         string    `json:"id"`
	CreatorID  string    `json:"creatorId"`
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	PriceUSD   float64   `json:"priceUsd"`
	MarketCap  float64   `json:"marketCap"`
	SupplyBase float64   `json:"supplyBase"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CurvePoint is one step of the static bonding-curve configuration table.
type CurvePoint struct {
	Supply   float64 `json:"supply"`
	PriceUSD float64 `json:"priceUsd"`
}

// DefaultCurve is the fixed bonding-curve table served for every token.
// The platform does not evaluate it; clients render it as-is.
var DefaultCurve = []CurvePoint{
	{Supply: 0, PriceUSD: 0.0001},
	{Supply: 100_000, PriceUSD: 0.0004},
	{Supply: 250_000, PriceUSD: 0.0010},
	{Supply: 500_000, PriceUSD: 0.0025},
	{Supply: 750_000, PriceUSD: 0.0060},
	{Supply: 1_000_000, PriceUSD: 0.0150},
}
