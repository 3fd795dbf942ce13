package service

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/advisorkit/portfolio-backend/internal/engine"
	"github.com/advisorkit/portfolio-backend/internal/model"
	"github.com/advisorkit/portfolio-backend/internal/repository"
)

// ValuationData bundles everything a valuation needs: the scoped ledger, the
// price and exchange rate observations covering it, and the date of the first
// trade.
type ValuationData struct {
	Transactions    []model.Transaction
	Prices          []model.PriceObservation
	FxRates         []model.FxObservation
	OldestTradeDate time.Time
}

// DataLoaderService loads the inputs for holdings computation and historical
// reconstruction in one place, so every valuation path sees the same data
// shape. Price and exchange rate ranges are fetched concurrently; both span
// from the scope's first trade to the requested end date, since carry-forward
// lookups may reach back to the earliest observation.
type DataLoaderService struct {
	transactionRepo *repository.TransactionRepository
	priceRepo       *repository.PriceRepository
}

// NewDataLoaderService creates a new DataLoaderService with the provided dependencies.
func NewDataLoaderService(
	transactionRepo *repository.TransactionRepository,
	priceRepo *repository.PriceRepository,
) *DataLoaderService {
	return &DataLoaderService{
		transactionRepo: transactionRepo,
		priceRepo:       priceRepo,
	}
}

// Load retrieves the full transaction history for the account scope plus the
// price and exchange rate observations from the first trade through endDate.
// The ledger is never truncated at the start: cost basis on any date depends
// on every transaction before it.
//
// An empty accountIDs slice means all accounts.
func (s *DataLoaderService) Load(accountIDs []string, endDate time.Time) (*ValuationData, error) {
	transactions, err := s.transactionRepo.GetLedger(accountIDs)
	if err != nil {
		return nil, err
	}

	data := &ValuationData{
		Transactions:    transactions,
		Prices:          []model.PriceObservation{},
		FxRates:         []model.FxObservation{},
		OldestTradeDate: s.transactionRepo.GetOldestTradeDate(accountIDs),
	}

	if len(transactions) == 0 {
		return data, nil
	}

	seen := make(map[string]struct{})
	tickers := make([]string, 0, len(transactions))
	for _, tx := range transactions {
		if _, ok := seen[tx.Ticker]; ok {
			continue
		}
		seen[tx.Ticker] = struct{}{}
		tickers = append(tickers, tx.Ticker)
	}

	start := engine.Day(data.OldestTradeDate)
	end := engine.Day(endDate)

	var g errgroup.Group
	g.Go(func() error {
		prices, err := s.priceRepo.GetPrices(tickers, start, end)
		if err != nil {
			return err
		}
		data.Prices = prices
		return nil
	})
	g.Go(func() error {
		rates, err := s.priceRepo.GetFxRates(start, end)
		if err != nil {
			return err
		}
		data.FxRates = rates
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return data, nil
}
