package model

import "time"

// Transaction types accepted by the ledger.
const (
	TransactionBuy  = "buy"
	TransactionSell = "sell"
)

// Transaction represents a single buy or sell of an instrument within an account.
// Records are append-only for accounting purposes: an edit replaces the whole row
// and a delete removes it, after which holdings are recomputed from history.
//
// UnitPrice is always in the home currency; for foreign-currency trades the
// conversion happened at entry time and FxRateAtTrade preserves the rate used.
// Seq is a monotonically increasing insertion sequence used as the deterministic
// tie-break when two transactions share a trade date.
type Transaction struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"accountId,omitempty"`
	Ticker          string    `json:"ticker"`
	Name            string    `json:"name"`
	InstrumentClass string    `json:"instrumentClass"`
	Type            string    `json:"type"`
	Quantity        float64   `json:"quantity"`
	UnitPrice       float64   `json:"unitPrice"`
	Currency        string    `json:"currency"`
	FxRateAtTrade   float64   `json:"fxRateAtTrade,omitempty"`
	Fee             float64   `json:"fee"`
	TradeDate       time.Time `json:"tradeDate"`
	Memo            string    `json:"memo,omitempty"`
	Seq             int64     `json:"-"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

// TransactionResponse represents a transaction with enriched data for API responses.
// Includes the account name for display in the dashboard ledger table.
type TransactionResponse struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"accountId,omitempty"`
	AccountName     string    `json:"accountName,omitempty"`
	Ticker          string    `json:"ticker"`
	Name            string    `json:"name"`
	InstrumentClass string    `json:"instrumentClass"`
	Type            string    `json:"type"`
	Quantity        float64   `json:"quantity"`
	UnitPrice       float64   `json:"unitPrice"`
	Currency        string    `json:"currency"`
	FxRateAtTrade   float64   `json:"fxRateAtTrade,omitempty"`
	Fee             float64   `json:"fee"`
	TradeDate       time.Time `json:"tradeDate"`
	Memo            string    `json:"memo,omitempty"`
}
