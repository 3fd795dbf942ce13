package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/advisorkit/portfolio-backend/internal/model"
	"github.com/advisorkit/portfolio-backend/internal/repository"
	"github.com/advisorkit/portfolio-backend/internal/testutil"
)

func newTransaction(tradeDate string) *model.Transaction {
	date, _ := time.Parse("2006-01-02", tradeDate)
	return &model.Transaction{
		ID:              testutil.MakeID(),
		Ticker:          "VWRL",
		Name:            "Vanguard FTSE All-World",
		InstrumentClass: "etf",
		Type:            model.TransactionBuy,
		Quantity:        10,
		UnitPrice:       100,
		Currency:        "EUR",
		TradeDate:       date,
		CreatedAt:       time.Now(),
	}
}

// TestTransactionRepository_InsertTransaction tests sequence assignment.
//
// WHY: the insertion sequence is the same-day tie-break for replay ordering;
// it must be allocated atomically with the insert and read back so callers
// hold the complete record.
func TestTransactionRepository_InsertTransaction(t *testing.T) {
	t.Run("assigns monotonically increasing sequence numbers", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		first := newTransaction("2024-01-02")
		second := newTransaction("2024-01-02")

		if err := repo.InsertTransaction(context.Background(), first); err != nil {
			t.Fatalf("InsertTransaction() returned unexpected error: %v", err)
		}
		if err := repo.InsertTransaction(context.Background(), second); err != nil {
			t.Fatalf("InsertTransaction() returned unexpected error: %v", err)
		}

		if first.Seq != 1 || second.Seq != 2 {
			t.Errorf("Expected seq 1 then 2, got %d then %d", first.Seq, second.Seq)
		}
	})

	t.Run("stores an unassigned transaction with a null account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		tx := newTransaction("2024-01-02")
		if err := repo.InsertTransaction(context.Background(), tx); err != nil {
			t.Fatalf("InsertTransaction() returned unexpected error: %v", err)
		}

		stored, err := repo.GetTransaction(tx.ID)
		if err != nil {
			t.Fatalf("GetTransaction() returned unexpected error: %v", err)
		}
		if stored.AccountID != "" {
			t.Errorf("Expected empty account ID, got %q", stored.AccountID)
		}
	})
}

// TestTransactionRepository_GetLedger tests replay-order retrieval.
func TestTransactionRepository_GetLedger(t *testing.T) {
	t.Run("orders by trade date then insertion sequence", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		// Inserted out of date order; same-day rows keep insertion order.
		late := testutil.NewTransaction().On("2024-02-01").Build(t, db)
		earlyFirst := testutil.NewTransaction().On("2024-01-02").Build(t, db)
		earlySecond := testutil.NewTransaction().On("2024-01-02").Build(t, db)

		ledger, err := repo.GetLedger(nil)
		if err != nil {
			t.Fatalf("GetLedger() returned unexpected error: %v", err)
		}

		if len(ledger) != 3 {
			t.Fatalf("Expected 3 transactions, got %d", len(ledger))
		}
		if ledger[0].ID != earlyFirst.ID || ledger[1].ID != earlySecond.ID || ledger[2].ID != late.ID {
			t.Errorf("Unexpected replay order: %s, %s, %s", ledger[0].ID, ledger[1].ID, ledger[2].ID)
		}
	})

	t.Run("restricts to the given accounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		accountA := testutil.CreateAccount(t, db, "Account A")
		accountB := testutil.CreateAccount(t, db, "Account B")
		testutil.NewTransaction().ForAccount(accountA.ID).Build(t, db)
		testutil.NewTransaction().ForAccount(accountB.ID).Build(t, db)

		ledger, err := repo.GetLedger([]string{accountA.ID})
		if err != nil {
			t.Fatalf("GetLedger() returned unexpected error: %v", err)
		}
		if len(ledger) != 1 {
			t.Errorf("Expected 1 transaction in scope, got %d", len(ledger))
		}
	})
}

// TestTransactionRepository_UpdateTransaction tests whole-row replacement.
func TestTransactionRepository_UpdateTransaction(t *testing.T) {
	t.Run("replaces fields and preserves the sequence", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		tx := newTransaction("2024-01-02")
		if err := repo.InsertTransaction(context.Background(), tx); err != nil {
			t.Fatalf("InsertTransaction() returned unexpected error: %v", err)
		}

		tx.Quantity = 25
		if err := repo.UpdateTransaction(context.Background(), tx); err != nil {
			t.Fatalf("UpdateTransaction() returned unexpected error: %v", err)
		}

		stored, err := repo.GetTransaction(tx.ID)
		if err != nil {
			t.Fatalf("GetTransaction() returned unexpected error: %v", err)
		}
		if stored.Quantity != 25 {
			t.Errorf("Expected quantity 25, got %v", stored.Quantity)
		}
		if stored.Seq != tx.Seq {
			t.Errorf("Expected seq %d to survive the update, got %d", tx.Seq, stored.Seq)
		}
	})

	t.Run("returns sql.ErrNoRows for a missing transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		tx := newTransaction("2024-01-02")
		err := repo.UpdateTransaction(context.Background(), tx)
		if !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("Expected sql.ErrNoRows, got %v", err)
		}
	})
}

// TestTransactionRepository_DeleteTransaction tests ledger row removal.
func TestTransactionRepository_DeleteTransaction(t *testing.T) {
	t.Run("deletes an existing transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		tx := testutil.NewTransaction().Build(t, db)
		if err := repo.DeleteTransaction(context.Background(), tx.ID); err != nil {
			t.Fatalf("DeleteTransaction() returned unexpected error: %v", err)
		}
		testutil.AssertRowCount(t, db, `"transaction"`, 0)
	})

	t.Run("returns sql.ErrNoRows for a missing transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		err := repo.DeleteTransaction(context.Background(), testutil.MakeID())
		if !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("Expected sql.ErrNoRows, got %v", err)
		}
	})
}

// TestTransactionRepository_GetOldestTradeDate tests the history start lookup.
func TestTransactionRepository_GetOldestTradeDate(t *testing.T) {
	t.Run("returns the earliest trade date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		testutil.NewTransaction().On("2024-03-01").Build(t, db)
		testutil.NewTransaction().On("2024-01-02").Build(t, db)

		oldest := repo.GetOldestTradeDate(nil)
		if oldest.Format("2006-01-02") != "2024-01-02" {
			t.Errorf("Expected 2024-01-02, got %s", oldest.Format("2006-01-02"))
		}
	})

	t.Run("returns the zero time for an empty ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		if oldest := repo.GetOldestTradeDate(nil); !oldest.IsZero() {
			t.Errorf("Expected zero time, got %v", oldest)
		}
	})
}

// TestTransactionRepository_ListTickers tests the distinct ticker listing.
func TestTransactionRepository_ListTickers(t *testing.T) {
	t.Run("returns distinct tickers sorted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		testutil.NewTransaction().WithTicker("VWRL").Build(t, db)
		testutil.NewTransaction().WithTicker("VWRL").Build(t, db)
		testutil.NewTransaction().WithTicker("AGGH").Build(t, db)

		tickers, err := repo.ListTickers()
		if err != nil {
			t.Fatalf("ListTickers() returned unexpected error: %v", err)
		}

		if len(tickers) != 2 {
			t.Fatalf("Expected 2 tickers, got %d", len(tickers))
		}
		if tickers[0] != "AGGH" || tickers[1] != "VWRL" {
			t.Errorf("Expected [AGGH VWRL], got %v", tickers)
		}
	})
}
