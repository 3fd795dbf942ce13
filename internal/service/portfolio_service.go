package service

import (
	"sort"
	"time"

	"github.com/advisorkit/portfolio-backend/internal/engine"
	"github.com/advisorkit/portfolio-backend/internal/model"
	"github.com/advisorkit/portfolio-backend/internal/repository"
)

// PortfolioService computes the dashboard's derived views: current holdings,
// historical valuation series, and per-account totals. Nothing it returns is
// persisted; every result is recomputed (or served from the injected series
// cache) from the raw ledger and price tables.
type PortfolioService struct {
	loader      *DataLoaderService
	accountRepo *repository.AccountRepository
	cache       *engine.SeriesCache
	converter   engine.CurrencyConverter
	reporter    engine.Reporter
}

// NewPortfolioService creates a new PortfolioService with the provided dependencies.
func NewPortfolioService(
	loader *DataLoaderService,
	accountRepo *repository.AccountRepository,
	cache *engine.SeriesCache,
	converter engine.CurrencyConverter,
	reporter engine.Reporter,
) *PortfolioService {
	return &PortfolioService{
		loader:      loader,
		accountRepo: accountRepo,
		cache:       cache,
		converter:   converter,
		reporter:    reporter,
	}
}

// GetHoldings computes the current holdings for the given account scope,
// valued at the most recent known price. An empty accountIDs slice means all
// accounts.
//
// Instruments without any price observation are valued at their invested
// amount and flagged unpriced, so a freshly bought position shows up at cost
// instead of vanishing. All monetary fields are rounded at this boundary; the
// replay itself runs unrounded.
func (s *PortfolioService) GetHoldings(accountIDs []string) ([]model.HoldingView, error) {
	today := engine.Day(time.Now())

	data, err := s.loader.Load(accountIDs, today)
	if err != nil {
		return nil, err
	}

	prices := engine.NewPriceSeries(data.Prices, data.FxRates)
	holdings := engine.ComputeHoldings(data.Transactions, s.reporter)

	views := make([]model.HoldingView, 0, len(holdings))
	for ticker, h := range holdings {
		view := model.HoldingView{HoldingState: h}

		price, ok := prices.LatestPrice(ticker)
		if ok {
			if s.converter.IsForeign(h.Currency) {
				price = s.converter.ToHome(price, today, prices)
			}
			view.Priced = true
			view.CurrentPrice = s.converter.RoundHome(price)
			view.MarketValue = s.converter.RoundHome(h.Quantity * price)
			view.UnrealizedGain = s.converter.RoundHome(h.Quantity*price - h.TotalInvested)
		} else {
			view.MarketValue = s.converter.RoundHome(h.TotalInvested)
		}

		view.AverageUnitPrice = s.converter.RoundHome(h.AverageUnitPrice)
		view.TotalInvested = s.converter.RoundHome(h.TotalInvested)

		views = append(views, view)
	}

	sort.Slice(views, func(i, j int) bool { return views[i].Ticker < views[j].Ticker })

	return views, nil
}

// GetValuationHistory reconstructs the historical invested amount and market
// value for the account scope across the requested date range.
//
// The returned range is clamped to [oldest trade date, today]: dates before
// the first transaction have no meaningful valuation and dates in the future
// have no prices. The series axis is the union of price observation dates,
// since holdings only change on trade dates and values only change on price
// dates; the full ledger always replays from the beginning regardless of the
// requested start.
//
// Reconstructions are memoized in the series cache keyed by the ledger
// fingerprint and clamped range. Ledger and price writes invalidate the cache.
func (s *PortfolioService) GetValuationHistory(accountIDs []string, startDate, endDate time.Time) ([]model.ValuationPoint, error) {
	today := engine.Day(time.Now())

	end := engine.Day(endDate)
	if end.After(today) {
		end = today
	}

	data, err := s.loader.Load(accountIDs, end)
	if err != nil {
		return nil, err
	}
	if len(data.Transactions) == 0 {
		return []model.ValuationPoint{}, nil
	}

	start := engine.Day(startDate)
	if oldest := engine.Day(data.OldestTradeDate); start.Before(oldest) {
		start = oldest
	}

	key := engine.Key(data.Transactions, start, end)
	series, ok := s.cache.Get(key)
	if !ok {
		prices := engine.NewPriceSeries(data.Prices, data.FxRates)

		var axis []time.Time
		for _, d := range prices.Dates() {
			if !d.After(end) {
				axis = append(axis, d)
			}
		}

		series = engine.Reconstruct(data.Transactions, prices, axis, s.converter, s.reporter)
		s.cache.Put(key, series)
	}

	points := []model.ValuationPoint{}
	for i, date := range series.Dates {
		if date.Before(start) || date.After(end) {
			continue
		}
		points = append(points, model.ValuationPoint{
			Date:        date.Format("2006-01-02"),
			Invested:    s.converter.RoundHome(series.Invested[i]),
			MarketValue: s.converter.RoundHome(series.MarketValue[i]),
		})
	}

	return points, nil
}

// GetAccountTotals computes invested amount and current market value per
// account, as of today. Every stored account appears in the result, zero
// totals included; transactions not assigned to any account are grouped under
// an empty account ID.
//
// Cost basis is computed within each account's own transaction subset. An
// instrument held in two accounts has two independent average-cost lineages.
func (s *PortfolioService) GetAccountTotals() ([]model.AccountTotalsResponse, error) {
	accounts, err := s.accountRepo.GetAccounts()
	if err != nil {
		return nil, err
	}

	today := engine.Day(time.Now())

	data, err := s.loader.Load(nil, today)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(accounts))
	accountIDs := make([]string, len(accounts))
	for i, a := range accounts {
		accountIDs[i] = a.ID
		names[a.ID] = a.Name
	}

	prices := engine.NewPriceSeries(data.Prices, data.FxRates)
	totals := engine.PerAccountTotals(data.Transactions, accountIDs, prices, today, s.converter, s.reporter)

	responses := make([]model.AccountTotalsResponse, 0, len(totals))
	for accountID, t := range totals {
		name, ok := names[accountID]
		if accountID == "" {
			name = "Unassigned"
		} else if !ok {
			// Transactions referencing a deleted account still participate.
			name = accountID
		}
		responses = append(responses, model.AccountTotalsResponse{
			AccountID:      accountID,
			AccountName:    name,
			InvestedAmount: s.converter.RoundHome(t.InvestedAmount),
			MarketValue:    s.converter.RoundHome(t.MarketValue),
		})
	}

	sort.Slice(responses, func(i, j int) bool {
		return responses[i].AccountName < responses[j].AccountName
	})

	return responses, nil
}
