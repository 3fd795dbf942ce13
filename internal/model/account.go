package model

import "time"

// Account represents a brokerage account a client holds transactions in.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Broker    string    `json:"broker,omitempty"`
	Number    string    `json:"number,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// AccountTotals holds the invested amount and current market value for one
// account scope. Derived, never persisted.
type AccountTotals struct {
	InvestedAmount float64 `json:"investedAmount"`
	MarketValue    float64 `json:"marketValue"`
}

// AccountTotalsResponse pairs account metadata with its computed totals for
// the dashboard's per-account summary table.
type AccountTotalsResponse struct {
	AccountID      string  `json:"accountId"`
	AccountName    string  `json:"accountName"`
	InvestedAmount float64 `json:"investedAmount"`
	MarketValue    float64 `json:"marketValue"`
}
