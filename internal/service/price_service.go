package service

import (
	"context"
	"fmt"
	"time"

	"github.com/advisorkit/portfolio-backend/internal/api/request"
	"github.com/advisorkit/portfolio-backend/internal/engine"
	"github.com/advisorkit/portfolio-backend/internal/model"
	"github.com/advisorkit/portfolio-backend/internal/repository"
)

// PriceService handles manual price and exchange rate management: range
// queries for charting and bulk imports for instruments the provider does not
// cover. Imports invalidate the valuation cache since every cached series
// depends on the price tables.
type PriceService struct {
	priceRepo *repository.PriceRepository
	cache     *engine.SeriesCache
}

// NewPriceService creates a new PriceService with the provided dependencies.
func NewPriceService(priceRepo *repository.PriceRepository, cache *engine.SeriesCache) *PriceService {
	return &PriceService{
		priceRepo: priceRepo,
		cache:     cache,
	}
}

// GetPrices retrieves price observations for one ticker within the date range.
func (s *PriceService) GetPrices(ticker string, start, end time.Time) ([]model.PriceObservation, error) {
	return s.priceRepo.GetPrices([]string{ticker}, start, end)
}

// GetFxRates retrieves exchange rate observations within the date range.
func (s *PriceService) GetFxRates(start, end time.Time) ([]model.FxObservation, error) {
	return s.priceRepo.GetFxRates(start, end)
}

// ImportPrices stores manually entered closing prices for one instrument.
// Existing observations for the same ticker and date are overwritten.
func (s *PriceService) ImportPrices(ctx context.Context, req request.ImportPricesRequest) (int, error) {
	imported := 0
	for _, p := range req.Prices {
		date, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return imported, fmt.Errorf("invalid price date %q: %w", p.Date, err)
		}
		err = s.priceRepo.UpsertPrice(ctx, model.PriceObservation{
			Ticker:     req.Ticker,
			Date:       date,
			ClosePrice: p.ClosePrice,
		})
		if err != nil {
			return imported, err
		}
		imported++
	}

	if imported > 0 {
		s.cache.Invalidate()
	}

	return imported, nil
}

// ImportFxRates stores manually entered exchange rate observations.
func (s *PriceService) ImportFxRates(ctx context.Context, req request.ImportFxRatesRequest) (int, error) {
	imported := 0
	for _, f := range req.Rates {
		date, err := time.Parse("2006-01-02", f.Date)
		if err != nil {
			return imported, fmt.Errorf("invalid rate date %q: %w", f.Date, err)
		}
		err = s.priceRepo.UpsertFxRate(ctx, model.FxObservation{
			Date: date,
			Rate: f.Rate,
		})
		if err != nil {
			return imported, err
		}
		imported++
	}

	if imported > 0 {
		s.cache.Invalidate()
	}

	return imported, nil
}
