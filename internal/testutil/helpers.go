package testutil

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"github.com/advisorkit/portfolio-backend/internal/engine"
	"github.com/advisorkit/portfolio-backend/internal/repository"
	"github.com/advisorkit/portfolio-backend/internal/service"
)

// MakeID returns a fresh UUID string.
func MakeID() string {
	return uuid.New().String()
}

// TestConverter is the currency configuration the service tests run with:
// EUR home, USD foreign, 0.9 fallback rate.
func TestConverter() engine.CurrencyConverter {
	return engine.CurrencyConverter{
		HomeCurrency:    "EUR",
		ForeignCurrency: "USD",
		FallbackRate:    0.9,
	}
}

func NewTestAccountService(t *testing.T, db *sql.DB) *service.AccountService {
	t.Helper()

	return service.NewAccountService(repository.NewAccountRepository(db))
}

func NewTestTransactionService(t *testing.T, db *sql.DB) *service.TransactionService {
	t.Helper()

	return service.NewTransactionService(
		repository.NewTransactionRepository(db),
		repository.NewAccountRepository(db),
		engine.NewSeriesCache(),
	)
}

func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	loader := service.NewDataLoaderService(
		repository.NewTransactionRepository(db),
		repository.NewPriceRepository(db),
	)

	return service.NewPortfolioService(
		loader,
		repository.NewAccountRepository(db),
		engine.NewSeriesCache(),
		TestConverter(),
		engine.NopReporter{},
	)
}

func NewTestPriceService(t *testing.T, db *sql.DB) *service.PriceService {
	t.Helper()

	return service.NewPriceService(
		repository.NewPriceRepository(db),
		engine.NewSeriesCache(),
	)
}
