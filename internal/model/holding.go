package model

// HoldingState is the running cost-basis state of one instrument within a
// ledger scope. Rebuilt from the full transaction history on demand, never
// persisted, so it stays consistent after edits and deletes.
//
// Invariant: TotalInvested == Quantity * AverageUnitPrice within rounding
// tolerance, and Quantity == 0 implies TotalInvested == 0.
type HoldingState struct {
	Ticker           string  `json:"ticker"`
	Name             string  `json:"name,omitempty"`
	InstrumentClass  string  `json:"instrumentClass,omitempty"`
	Currency         string  `json:"currency,omitempty"`
	Quantity         float64 `json:"quantity"`
	AverageUnitPrice float64 `json:"averageUnitPrice"`
	TotalInvested    float64 `json:"totalInvested"`
}

// HoldingView extends HoldingState with current-valuation fields for the
// dashboard holdings table.
type HoldingView struct {
	HoldingState
	CurrentPrice   float64 `json:"currentPrice"`
	MarketValue    float64 `json:"marketValue"`
	UnrealizedGain float64 `json:"unrealizedGain"`
	Priced         bool    `json:"priced"`
}

// ValuationPoint is one entry of the reconstructed historical series.
type ValuationPoint struct {
	Date        string  `json:"date"`
	Invested    float64 `json:"invested"`
	MarketValue float64 `json:"marketValue"`
}
