package service_test

import (
	"testing"
	"time"

	"github.com/advisorkit/portfolio-backend/internal/engine"
	"github.com/advisorkit/portfolio-backend/internal/repository"
	"github.com/advisorkit/portfolio-backend/internal/service"
	"github.com/advisorkit/portfolio-backend/internal/testutil"
)

// TestPortfolioService_GetHoldings tests the current-holdings view.
//
// WHY: the holdings table is the dashboard's main screen; it must value
// positions at the latest known price, fall back to invested amount for
// unpriced instruments, and convert foreign-currency prices to the home
// currency.
func TestPortfolioService_GetHoldings(t *testing.T) {
	t.Run("returns empty for an empty ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		holdings, err := svc.GetHoldings(nil)
		if err != nil {
			t.Fatalf("GetHoldings() returned unexpected error: %v", err)
		}
		if len(holdings) != 0 {
			t.Errorf("Expected no holdings, got %d", len(holdings))
		}
	})

	t.Run("values a priced holding at the latest close", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		testutil.NewTransaction().Buy(10, 100).On("2024-01-02").Build(t, db)
		testutil.CreatePrice(t, db, "VWRL", "2024-01-02", 100)
		testutil.CreatePrice(t, db, "VWRL", "2024-01-05", 110)

		holdings, err := svc.GetHoldings(nil)
		if err != nil {
			t.Fatalf("GetHoldings() returned unexpected error: %v", err)
		}

		if len(holdings) != 1 {
			t.Fatalf("Expected 1 holding, got %d", len(holdings))
		}
		h := holdings[0]
		if !h.Priced {
			t.Error("Expected holding to be priced")
		}
		if h.CurrentPrice != 110 {
			t.Errorf("Expected current price 110, got %v", h.CurrentPrice)
		}
		if h.MarketValue != 1100 {
			t.Errorf("Expected market value 1100, got %v", h.MarketValue)
		}
		if h.UnrealizedGain != 100 {
			t.Errorf("Expected unrealized gain 100, got %v", h.UnrealizedGain)
		}
		if h.TotalInvested != 1000 {
			t.Errorf("Expected invested 1000, got %v", h.TotalInvested)
		}
	})

	t.Run("falls back to invested amount when no price exists", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		testutil.NewTransaction().Buy(10, 100).Build(t, db)

		holdings, err := svc.GetHoldings(nil)
		if err != nil {
			t.Fatalf("GetHoldings() returned unexpected error: %v", err)
		}

		if len(holdings) != 1 {
			t.Fatalf("Expected 1 holding, got %d", len(holdings))
		}
		h := holdings[0]
		if h.Priced {
			t.Error("Expected holding to be flagged unpriced")
		}
		if h.MarketValue != 1000 {
			t.Errorf("Expected market value to equal invested 1000, got %v", h.MarketValue)
		}
	})

	t.Run("converts foreign-currency prices with the effective rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		testutil.NewTransaction().WithTicker("VUSA").WithCurrency("USD").Buy(10, 80).Build(t, db)
		testutil.CreatePrice(t, db, "VUSA", "2024-01-05", 100)
		testutil.CreateFxRate(t, db, "2024-01-05", 0.85)

		holdings, err := svc.GetHoldings(nil)
		if err != nil {
			t.Fatalf("GetHoldings() returned unexpected error: %v", err)
		}

		if len(holdings) != 1 {
			t.Fatalf("Expected 1 holding, got %d", len(holdings))
		}
		if holdings[0].CurrentPrice != 85 {
			t.Errorf("Expected converted price 85, got %v", holdings[0].CurrentPrice)
		}
		if holdings[0].MarketValue != 850 {
			t.Errorf("Expected market value 850, got %v", holdings[0].MarketValue)
		}
	})

	t.Run("uses the fallback rate when no rate was ever observed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		testutil.NewTransaction().WithTicker("VUSA").WithCurrency("USD").Buy(10, 80).Build(t, db)
		testutil.CreatePrice(t, db, "VUSA", "2024-01-05", 100)

		holdings, err := svc.GetHoldings(nil)
		if err != nil {
			t.Fatalf("GetHoldings() returned unexpected error: %v", err)
		}

		if len(holdings) != 1 {
			t.Fatalf("Expected 1 holding, got %d", len(holdings))
		}
		// Fallback rate is 0.9 in the test configuration.
		if holdings[0].CurrentPrice != 90 {
			t.Errorf("Expected fallback-converted price 90, got %v", holdings[0].CurrentPrice)
		}
	})

	t.Run("drops fully exited instruments", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		testutil.NewTransaction().Buy(10, 100).On("2024-01-02").Build(t, db)
		testutil.NewTransaction().Sell(10, 120).On("2024-02-01").Build(t, db)

		holdings, err := svc.GetHoldings(nil)
		if err != nil {
			t.Fatalf("GetHoldings() returned unexpected error: %v", err)
		}
		if len(holdings) != 0 {
			t.Errorf("Expected exited position to be dropped, got %d holdings", len(holdings))
		}
	})

	t.Run("scopes holdings to the requested accounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		accountA := testutil.CreateAccount(t, db, "Account A")
		accountB := testutil.CreateAccount(t, db, "Account B")
		testutil.NewTransaction().ForAccount(accountA.ID).WithTicker("VWRL").Buy(10, 100).Build(t, db)
		testutil.NewTransaction().ForAccount(accountB.ID).WithTicker("VUSA").Buy(5, 80).Build(t, db)

		holdings, err := svc.GetHoldings([]string{accountA.ID})
		if err != nil {
			t.Fatalf("GetHoldings() returned unexpected error: %v", err)
		}
		if len(holdings) != 1 {
			t.Fatalf("Expected 1 holding in scope, got %d", len(holdings))
		}
		if holdings[0].Ticker != "VWRL" {
			t.Errorf("Expected VWRL, got %s", holdings[0].Ticker)
		}
	})
}

// TestPortfolioService_GetValuationHistory tests the reconstructed series.
//
// WHY: the history chart replays the full ledger over the price-date axis;
// the returned window must clamp to the first trade and to today, and repeat
// requests must hit the memoized series.
func TestPortfolioService_GetValuationHistory(t *testing.T) {
	t.Run("returns empty for an empty ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		points, err := svc.GetValuationHistory(nil,
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("GetValuationHistory() returned unexpected error: %v", err)
		}
		if len(points) != 0 {
			t.Errorf("Expected no points, got %d", len(points))
		}
	})

	t.Run("reconstructs invested and market value over price dates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		testutil.NewTransaction().Buy(10, 100).On("2024-01-02").Build(t, db)
		testutil.CreatePrice(t, db, "VWRL", "2024-01-02", 100)
		testutil.CreatePrice(t, db, "VWRL", "2024-01-05", 110)

		points, err := svc.GetValuationHistory(nil,
			time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("GetValuationHistory() returned unexpected error: %v", err)
		}

		if len(points) != 2 {
			t.Fatalf("Expected 2 points, got %d", len(points))
		}
		if points[0].Date != "2024-01-02" || points[1].Date != "2024-01-05" {
			t.Errorf("Unexpected dates: %s, %s", points[0].Date, points[1].Date)
		}
		if points[0].Invested != 1000 || points[1].Invested != 1000 {
			t.Errorf("Expected invested 1000 on both dates, got %v and %v", points[0].Invested, points[1].Invested)
		}
		if points[0].MarketValue != 1000 {
			t.Errorf("Expected market value 1000 on first date, got %v", points[0].MarketValue)
		}
		if points[1].MarketValue != 1100 {
			t.Errorf("Expected market value 1100 on second date, got %v", points[1].MarketValue)
		}
	})

	t.Run("clamps the window to the first trade date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		// A price exists before the first trade; that date must not appear.
		testutil.NewTransaction().Buy(10, 100).On("2024-01-02").Build(t, db)
		testutil.CreatePrice(t, db, "VWRL", "2023-12-20", 95)
		testutil.CreatePrice(t, db, "VWRL", "2024-01-05", 110)

		points, err := svc.GetValuationHistory(nil,
			time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("GetValuationHistory() returned unexpected error: %v", err)
		}

		for _, p := range points {
			if p.Date < "2024-01-02" {
				t.Errorf("Expected no points before the first trade, got %s", p.Date)
			}
		}
	})

	t.Run("filters points to the requested window", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		testutil.NewTransaction().Buy(10, 100).On("2024-01-02").Build(t, db)
		testutil.CreatePrice(t, db, "VWRL", "2024-01-02", 100)
		testutil.CreatePrice(t, db, "VWRL", "2024-01-05", 110)
		testutil.CreatePrice(t, db, "VWRL", "2024-02-05", 120)

		points, err := svc.GetValuationHistory(nil,
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("GetValuationHistory() returned unexpected error: %v", err)
		}

		if len(points) != 2 {
			t.Fatalf("Expected 2 points inside January, got %d", len(points))
		}
	})

	t.Run("memoizes the reconstruction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		cache := engine.NewSeriesCache()
		loader := service.NewDataLoaderService(
			repository.NewTransactionRepository(db),
			repository.NewPriceRepository(db),
		)
		svc := service.NewPortfolioService(
			loader,
			repository.NewAccountRepository(db),
			cache,
			testutil.TestConverter(),
			engine.NopReporter{},
		)

		testutil.NewTransaction().Buy(10, 100).On("2024-01-02").Build(t, db)
		testutil.CreatePrice(t, db, "VWRL", "2024-01-05", 110)

		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

		if _, err := svc.GetValuationHistory(nil, start, end); err != nil {
			t.Fatalf("GetValuationHistory() returned unexpected error: %v", err)
		}
		if cache.Len() != 1 {
			t.Errorf("Expected 1 cached series, got %d", cache.Len())
		}
		if _, err := svc.GetValuationHistory(nil, start, end); err != nil {
			t.Fatalf("GetValuationHistory() returned unexpected error: %v", err)
		}
		if cache.Len() != 1 {
			t.Errorf("Expected repeat request to reuse the cached series, got %d entries", cache.Len())
		}
	})
}

// TestPortfolioService_GetAccountTotals tests per-account aggregation.
//
// WHY: account totals must isolate each account's cost basis, list every
// stored account even with zero activity, and group unassigned transactions
// under their own row.
func TestPortfolioService_GetAccountTotals(t *testing.T) {
	t.Run("isolates cost basis per account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		accountA := testutil.CreateAccount(t, db, "Account A")
		accountB := testutil.CreateAccount(t, db, "Account B")
		testutil.NewTransaction().ForAccount(accountA.ID).Buy(10, 100).Build(t, db)
		testutil.NewTransaction().ForAccount(accountB.ID).Buy(5, 200).Build(t, db)
		testutil.CreatePrice(t, db, "VWRL", "2024-01-05", 110)

		totals, err := svc.GetAccountTotals()
		if err != nil {
			t.Fatalf("GetAccountTotals() returned unexpected error: %v", err)
		}

		byName := make(map[string]float64)
		for _, row := range totals {
			byName[row.AccountName] = row.InvestedAmount
		}
		if byName["Account A"] != 1000 {
			t.Errorf("Expected Account A invested 1000, got %v", byName["Account A"])
		}
		if byName["Account B"] != 1000 {
			t.Errorf("Expected Account B invested 1000, got %v", byName["Account B"])
		}
	})

	t.Run("includes zero-activity accounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		testutil.CreateAccount(t, db, "Dormant")

		totals, err := svc.GetAccountTotals()
		if err != nil {
			t.Fatalf("GetAccountTotals() returned unexpected error: %v", err)
		}

		if len(totals) != 1 {
			t.Fatalf("Expected 1 account row, got %d", len(totals))
		}
		if totals[0].AccountName != "Dormant" {
			t.Errorf("Expected Dormant, got %s", totals[0].AccountName)
		}
		if totals[0].InvestedAmount != 0 || totals[0].MarketValue != 0 {
			t.Errorf("Expected zero totals, got invested=%v market=%v",
				totals[0].InvestedAmount, totals[0].MarketValue)
		}
	})

	t.Run("groups unassigned transactions under their own row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestPortfolioService(t, db)

		testutil.NewTransaction().Buy(10, 100).Build(t, db)

		totals, err := svc.GetAccountTotals()
		if err != nil {
			t.Fatalf("GetAccountTotals() returned unexpected error: %v", err)
		}

		if len(totals) != 1 {
			t.Fatalf("Expected 1 row, got %d", len(totals))
		}
		if totals[0].AccountID != "" || totals[0].AccountName != "Unassigned" {
			t.Errorf("Expected unassigned row, got id=%q name=%q",
				totals[0].AccountID, totals[0].AccountName)
		}
		if totals[0].InvestedAmount != 1000 {
			t.Errorf("Expected invested 1000, got %v", totals[0].InvestedAmount)
		}
	})
}
