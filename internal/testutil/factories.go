package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/advisorkit/portfolio-backend/internal/model"
)

// AccountBuilder provides a fluent interface for creating test accounts.
//
// Example usage:
//
//	// Simple creation with defaults
//	account := testutil.NewAccount().Build(t, db)
//
//	// Customized account
//	account := testutil.NewAccount().
//	    WithName("Pension").
//	    WithBroker("DeGiro").
//	    Build(t, db)
type AccountBuilder struct {
	ID     string
	Name   string
	Broker string
	Number string
}

// NewAccount creates an AccountBuilder with sensible defaults.
func NewAccount() *AccountBuilder {
	return &AccountBuilder{
		ID:     MakeID(),
		Name:   "Test Account",
		Broker: "Test Broker",
		Number: "NL-0001",
	}
}

// WithID sets a custom ID.
func (b *AccountBuilder) WithID(id string) *AccountBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *AccountBuilder) WithName(name string) *AccountBuilder {
	b.Name = name
	return b
}

// WithBroker sets a custom broker.
func (b *AccountBuilder) WithBroker(broker string) *AccountBuilder {
	b.Broker = broker
	return b
}

// Build creates the account in the database and returns it.
func (b *AccountBuilder) Build(t *testing.T, db *sql.DB) model.Account {
	t.Helper()

	query := `
		INSERT INTO account (id, name, broker, number, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	createdAt := time.Now().UTC()
	_, err := db.Exec(query, b.ID, b.Name, b.Broker, b.Number, createdAt.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}

	return model.Account{
		ID:        b.ID,
		Name:      b.Name,
		Broker:    b.Broker,
		Number:    b.Number,
		CreatedAt: createdAt,
	}
}

// CreateAccount creates an account with the given name and default values.
func CreateAccount(t *testing.T, db *sql.DB, name string) model.Account {
	t.Helper()
	return NewAccount().WithID(uuid.New().String()).WithName(name).Build(t, db)
}

// TransactionBuilder provides a fluent interface for creating test ledger entries.
//
// Example usage:
//
//	tx := testutil.NewTransaction().
//	    ForAccount(account.ID).
//	    WithTicker("VWRL").
//	    Sell(5, 110).
//	    On("2024-03-01").
//	    Build(t, db)
type TransactionBuilder struct {
	ID              string
	AccountID       string
	Ticker          string
	Name            string
	InstrumentClass string
	Type            string
	Quantity        float64
	UnitPrice       float64
	Currency        string
	FxRateAtTrade   float64
	Fee             float64
	TradeDate       string
	Memo            string
}

// NewTransaction creates a TransactionBuilder defaulting to a buy of 10 units
// at 100 in the home currency.
func NewTransaction() *TransactionBuilder {
	return &TransactionBuilder{
		ID:              MakeID(),
		Ticker:          "VWRL",
		Name:            "Vanguard FTSE All-World",
		InstrumentClass: "etf",
		Type:            model.TransactionBuy,
		Quantity:        10,
		UnitPrice:       100,
		Currency:        "EUR",
		TradeDate:       "2024-01-02",
	}
}

// ForAccount assigns the transaction to an account.
func (b *TransactionBuilder) ForAccount(accountID string) *TransactionBuilder {
	b.AccountID = accountID
	return b
}

// WithTicker sets the instrument ticker.
func (b *TransactionBuilder) WithTicker(ticker string) *TransactionBuilder {
	b.Ticker = ticker
	return b
}

// WithCurrency sets the instrument's trading currency.
func (b *TransactionBuilder) WithCurrency(currency string) *TransactionBuilder {
	b.Currency = currency
	return b
}

// Buy configures the transaction as a buy of the given quantity and unit price.
func (b *TransactionBuilder) Buy(quantity, unitPrice float64) *TransactionBuilder {
	b.Type = model.TransactionBuy
	b.Quantity = quantity
	b.UnitPrice = unitPrice
	return b
}

// Sell configures the transaction as a sell of the given quantity and unit price.
func (b *TransactionBuilder) Sell(quantity, unitPrice float64) *TransactionBuilder {
	b.Type = model.TransactionSell
	b.Quantity = quantity
	b.UnitPrice = unitPrice
	return b
}

// On sets the trade date (YYYY-MM-DD).
func (b *TransactionBuilder) On(date string) *TransactionBuilder {
	b.TradeDate = date
	return b
}

// Build creates the transaction in the database and returns it.
// The insertion sequence is assigned the same way the repository assigns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	tradeDate, err := time.Parse("2006-01-02", b.TradeDate)
	if err != nil {
		t.Fatalf("Invalid trade date %q: %v", b.TradeDate, err)
	}

	var accountID any
	if b.AccountID != "" {
		accountID = b.AccountID
	}

	query := `
		INSERT INTO "transaction" (
			id, account_id, ticker, name, instrument_class, type, quantity,
			unit_price, currency, fx_rate_at_trade, fee, trade_date, memo, seq, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM "transaction"), ?)
	`

	createdAt := time.Now().UTC()
	_, err = db.Exec(query,
		b.ID, accountID, b.Ticker, b.Name, b.InstrumentClass, b.Type,
		b.Quantity, b.UnitPrice, b.Currency, b.FxRateAtTrade, b.Fee,
		b.TradeDate, b.Memo, createdAt.Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	var seq int64
	if err := db.QueryRow(`SELECT seq FROM "transaction" WHERE id = ?`, b.ID).Scan(&seq); err != nil {
		t.Fatalf("Failed to read back transaction seq: %v", err)
	}

	return model.Transaction{
		ID:              b.ID,
		AccountID:       b.AccountID,
		Ticker:          b.Ticker,
		Name:            b.Name,
		InstrumentClass: b.InstrumentClass,
		Type:            b.Type,
		Quantity:        b.Quantity,
		UnitPrice:       b.UnitPrice,
		Currency:        b.Currency,
		FxRateAtTrade:   b.FxRateAtTrade,
		Fee:             b.Fee,
		TradeDate:       tradeDate,
		Memo:            b.Memo,
		Seq:             seq,
		CreatedAt:       createdAt,
	}
}

// CreatePrice stores one closing price observation.
func CreatePrice(t *testing.T, db *sql.DB, ticker, date string, close float64) {
	t.Helper()

	query := `
		INSERT INTO instrument_price (id, ticker, date, close_price)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET close_price = excluded.close_price
	`
	if _, err := db.Exec(query, MakeID(), ticker, date, close); err != nil {
		t.Fatalf("Failed to create test price: %v", err)
	}
}

// CreateFxRate stores one exchange rate observation.
func CreateFxRate(t *testing.T, db *sql.DB, date string, rate float64) {
	t.Helper()

	query := `
		INSERT INTO fx_rate (id, date, rate)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET rate = excluded.rate
	`
	if _, err := db.Exec(query, MakeID(), date, rate); err != nil {
		t.Fatalf("Failed to create test fx rate: %v", err)
	}
}
