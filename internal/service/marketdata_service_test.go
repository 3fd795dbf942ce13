package service_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/advisorkit/portfolio-backend/internal/apperrors"
	"github.com/advisorkit/portfolio-backend/internal/engine"
	"github.com/advisorkit/portfolio-backend/internal/marketdata"
	"github.com/advisorkit/portfolio-backend/internal/repository"
	"github.com/advisorkit/portfolio-backend/internal/service"
	"github.com/advisorkit/portfolio-backend/internal/testutil"
)

func providerResponse(symbol string, dates []string, closes []float64) string {
	ts := make([]string, len(dates))
	for i, d := range dates {
		parsed, _ := time.Parse("2006-01-02", d)
		ts[i] = fmt.Sprintf("%d", parsed.Unix())
	}
	cl := make([]string, len(closes))
	for i, c := range closes {
		cl[i] = fmt.Sprintf("%g", c)
	}
	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"meta": {"currency": "EUR", "symbol": %q},
				"timestamp": [%s],
				"indicators": {"quote": [{"close": [%s]}]}
			}],
			"error": null
		}
	}`, symbol, strings.Join(ts, ","), strings.Join(cl, ","))
}

func newVault(t *testing.T) *marketdata.TokenVault {
	t.Helper()

	key := new(fernet.Key)
	if err := key.Generate(); err != nil {
		t.Fatalf("Failed to generate fernet key: %v", err)
	}
	vault, err := marketdata.NewTokenVault(key.Encode())
	if err != nil {
		t.Fatalf("NewTokenVault() returned unexpected error: %v", err)
	}
	return vault
}

func newMarketDataService(t *testing.T, db *sql.DB, baseURL string, vault *marketdata.TokenVault, cache *engine.SeriesCache) *service.MarketDataService {
	t.Helper()

	return service.NewMarketDataService(
		marketdata.NewClient(baseURL),
		repository.NewPriceRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewSettingRepository(db),
		vault,
		cache,
		"USDEUR=X",
		"",
	)
}

// TestMarketDataService_Sync tests the provider synchronization run.
//
// WHY: the sync must backfill every ledger ticker plus the FX pair, collect
// per-symbol failures without aborting the run, and invalidate the valuation
// cache when new observations arrive.
func TestMarketDataService_Sync(t *testing.T) {
	t.Run("stores fetched closes and the fx series", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewTransaction().WithTicker("VWRL").On("2024-01-02").Build(t, db)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.Contains(r.URL.Path, "VWRL"):
				fmt.Fprint(w, providerResponse("VWRL", []string{"2024-01-02", "2024-01-03"}, []float64{100, 101}))
			case strings.Contains(r.URL.Path, "USDEUR=X"):
				fmt.Fprint(w, providerResponse("USDEUR=X", []string{"2024-01-02"}, []float64{0.91}))
			default:
				t.Errorf("Unexpected symbol request: %s", r.URL.Path)
			}
		}))
		defer server.Close()

		cache := engine.NewSeriesCache()
		cache.Put(engine.SeriesKey{Fingerprint: "stale"}, engine.ValuationSeries{})
		svc := newMarketDataService(t, db, server.URL, nil, cache)

		result, err := svc.Sync(context.Background())
		if err != nil {
			t.Fatalf("Sync() returned unexpected error: %v", err)
		}

		if result.PricesUpserted != 2 {
			t.Errorf("Expected 2 prices upserted, got %d", result.PricesUpserted)
		}
		if result.FxUpserted != 1 {
			t.Errorf("Expected 1 fx rate upserted, got %d", result.FxUpserted)
		}
		if len(result.Errors) != 0 {
			t.Errorf("Expected no errors, got %v", result.Errors)
		}
		testutil.AssertRowCount(t, db, "instrument_price", 2)
		testutil.AssertRowCount(t, db, "fx_rate", 1)

		if cache.Len() != 0 {
			t.Error("Expected cache to be invalidated after upserts")
		}
		if svc.LastSync().IsZero() {
			t.Error("Expected last sync timestamp to be recorded")
		}
	})

	t.Run("collects per-ticker failures without aborting", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewTransaction().WithTicker("DEAD").On("2024-01-02").Build(t, db)
		testutil.NewTransaction().WithTicker("VWRL").On("2024-01-02").Build(t, db)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.Contains(r.URL.Path, "DEAD"):
				fmt.Fprint(w, `{"chart": {"result": [], "error": "No data found, symbol may be delisted"}}`)
			case strings.Contains(r.URL.Path, "VWRL"):
				fmt.Fprint(w, providerResponse("VWRL", []string{"2024-01-02"}, []float64{100}))
			case strings.Contains(r.URL.Path, "USDEUR=X"):
				fmt.Fprint(w, providerResponse("USDEUR=X", []string{"2024-01-02"}, []float64{0.91}))
			}
		}))
		defer server.Close()

		svc := newMarketDataService(t, db, server.URL, nil, engine.NewSeriesCache())

		result, err := svc.Sync(context.Background())
		if err != nil {
			t.Fatalf("Sync() returned unexpected error: %v", err)
		}

		if result.PricesUpserted != 1 {
			t.Errorf("Expected the healthy ticker to sync, got %d prices", result.PricesUpserted)
		}
		if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "DEAD") {
			t.Errorf("Expected one DEAD error, got %v", result.Errors)
		}
	})

	t.Run("sends the stored bearer token on provider requests", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewTransaction().WithTicker("VWRL").On("2024-01-02").Build(t, db)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
				t.Errorf("Expected stored token as bearer credential, got %q", got)
			}
			switch {
			case strings.Contains(r.URL.Path, "VWRL"):
				fmt.Fprint(w, providerResponse("VWRL", []string{"2024-01-02"}, []float64{100}))
			case strings.Contains(r.URL.Path, "USDEUR=X"):
				fmt.Fprint(w, providerResponse("USDEUR=X", []string{"2024-01-02"}, []float64{0.91}))
			}
		}))
		defer server.Close()

		svc := newMarketDataService(t, db, server.URL, newVault(t), engine.NewSeriesCache())
		if err := svc.StoreProviderToken(context.Background(), "secret-token"); err != nil {
			t.Fatalf("StoreProviderToken() returned unexpected error: %v", err)
		}

		result, err := svc.Sync(context.Background())
		if err != nil {
			t.Fatalf("Sync() returned unexpected error: %v", err)
		}
		if result.PricesUpserted != 1 {
			t.Errorf("Expected 1 price upserted, got %d", result.PricesUpserted)
		}
	})

	t.Run("uses the range query when the series is nearly current", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewTransaction().WithTicker("VWRL").On("2024-01-02").Build(t, db)

		today := time.Now().UTC().Truncate(24 * time.Hour)
		yesterday := today.AddDate(0, 0, -1)
		testutil.CreatePrice(t, db, "VWRL", yesterday.Format("2006-01-02"), 100)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.Contains(r.URL.Path, "VWRL"):
				if !strings.Contains(r.URL.RawQuery, "range=5d") {
					t.Errorf("Expected a range query for a nearly current series, got %s", r.URL.RawQuery)
				}
				fmt.Fprint(w, providerResponse("VWRL",
					[]string{yesterday.Format("2006-01-02"), today.Format("2006-01-02")},
					[]float64{100, 102}))
			case strings.Contains(r.URL.Path, "USDEUR=X"):
				fmt.Fprint(w, providerResponse("USDEUR=X", []string{"2024-01-02"}, []float64{0.91}))
			}
		}))
		defer server.Close()

		svc := newMarketDataService(t, db, server.URL, nil, engine.NewSeriesCache())

		result, err := svc.Sync(context.Background())
		if err != nil {
			t.Fatalf("Sync() returned unexpected error: %v", err)
		}

		// The range result reaches back to the already stored close; only the
		// missing day is upserted.
		if result.PricesUpserted != 1 {
			t.Errorf("Expected 1 price upserted, got %d", result.PricesUpserted)
		}
		testutil.AssertRowCount(t, db, "instrument_price", 2)
	})

	t.Run("does nothing for an empty ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("Expected no provider requests, got %s", r.URL.Path)
		}))
		defer server.Close()

		svc := newMarketDataService(t, db, server.URL, nil, engine.NewSeriesCache())

		result, err := svc.Sync(context.Background())
		if err != nil {
			t.Fatalf("Sync() returned unexpected error: %v", err)
		}
		if result.PricesUpserted != 0 || result.FxUpserted != 0 {
			t.Errorf("Expected nothing upserted, got %+v", result)
		}
	})
}

// TestMarketDataService_ProviderToken tests encrypted token storage.
func TestMarketDataService_ProviderToken(t *testing.T) {
	t.Run("round-trips the token through the settings table", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newMarketDataService(t, db, "http://localhost:0", newVault(t), engine.NewSeriesCache())

		if err := svc.StoreProviderToken(context.Background(), "secret-token"); err != nil {
			t.Fatalf("StoreProviderToken() returned unexpected error: %v", err)
		}

		// The stored value must not be plaintext.
		stored, err := repository.NewSettingRepository(db).GetSetting(repository.SettingProviderToken)
		if err != nil {
			t.Fatalf("GetSetting() returned unexpected error: %v", err)
		}
		if stored == "secret-token" {
			t.Error("Expected stored token to be encrypted")
		}

		token, err := svc.ProviderToken()
		if err != nil {
			t.Fatalf("ProviderToken() returned unexpected error: %v", err)
		}
		if token != "secret-token" {
			t.Errorf("Expected round-tripped token, got %q", token)
		}
	})

	t.Run("reports a missing token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newMarketDataService(t, db, "http://localhost:0", newVault(t), engine.NewSeriesCache())

		_, err := svc.ProviderToken()
		if !errors.Is(err, apperrors.ErrSettingNotFound) {
			t.Errorf("Expected ErrSettingNotFound, got %v", err)
		}
	})

	t.Run("refuses token storage without an encryption key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newMarketDataService(t, db, "http://localhost:0", nil, engine.NewSeriesCache())

		if err := svc.StoreProviderToken(context.Background(), "secret-token"); err == nil {
			t.Error("Expected error when no vault is configured")
		}
	})
}

// TestMarketDataService_Status tests the provider integration status view.
func TestMarketDataService_Status(t *testing.T) {
	t.Run("reports nothing configured on a fresh database", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newMarketDataService(t, db, "http://localhost:0", nil, engine.NewSeriesCache())

		status := svc.Status()
		if status.TokenConfigured {
			t.Error("Expected no token configured")
		}
		if status.LastSync != "" {
			t.Errorf("Expected no last sync, got %q", status.LastSync)
		}
	})

	t.Run("reflects a stored token and a completed sync", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := newMarketDataService(t, db, "http://localhost:0", newVault(t), engine.NewSeriesCache())

		if err := svc.StoreProviderToken(context.Background(), "secret-token"); err != nil {
			t.Fatalf("StoreProviderToken() returned unexpected error: %v", err)
		}
		// An empty ledger syncs without provider requests but still records
		// the run timestamp.
		if _, err := svc.Sync(context.Background()); err != nil {
			t.Fatalf("Sync() returned unexpected error: %v", err)
		}

		status := svc.Status()
		if !status.TokenConfigured {
			t.Error("Expected token to be reported as configured")
		}
		if _, err := time.Parse(time.RFC3339, status.LastSync); err != nil {
			t.Errorf("Expected RFC3339 last sync timestamp, got %q", status.LastSync)
		}
	})
}
