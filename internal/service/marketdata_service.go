package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/advisorkit/portfolio-backend/internal/apperrors"
	"github.com/advisorkit/portfolio-backend/internal/engine"
	"github.com/advisorkit/portfolio-backend/internal/marketdata"
	"github.com/advisorkit/portfolio-backend/internal/model"
	"github.com/advisorkit/portfolio-backend/internal/repository"
)

// MarketDataService synchronizes instrument prices and the exchange rate from
// the quote provider. Sync runs on a cron schedule after market close and can
// be triggered manually through the API.
type MarketDataService struct {
	client          *marketdata.Client
	priceRepo       *repository.PriceRepository
	transactionRepo *repository.TransactionRepository
	settingRepo     *repository.SettingRepository
	vault           *marketdata.TokenVault
	cache           *engine.SeriesCache

	fxPair   string
	cronRun  *cron.Cron
	schedule string
}

// NewMarketDataService creates a new MarketDataService with the provided dependencies.
// vault may be nil when no fernet key is configured; token storage is then disabled.
func NewMarketDataService(
	client *marketdata.Client,
	priceRepo *repository.PriceRepository,
	transactionRepo *repository.TransactionRepository,
	settingRepo *repository.SettingRepository,
	vault *marketdata.TokenVault,
	cache *engine.SeriesCache,
	fxPair string,
	schedule string,
) *MarketDataService {
	s := &MarketDataService{
		client:          client,
		priceRepo:       priceRepo,
		transactionRepo: transactionRepo,
		settingRepo:     settingRepo,
		vault:           vault,
		cache:           cache,
		fxPair:          fxPair,
		schedule:        schedule,
	}
	client.SetTokenSource(s.providerTokenSource)
	return s
}

// recentWindowDays is the span the provider's range query covers; series at
// most this far behind sync through it instead of a period window.
const recentWindowDays = 5

// SyncResult summarizes one synchronization run.
type SyncResult struct {
	PricesUpserted int      `json:"pricesUpserted"`
	FxUpserted     int      `json:"fxUpserted"`
	Tickers        []string `json:"tickers"`
	Errors         []string `json:"errors,omitempty"`
}

// Sync fetches missing closing prices for every ticker in the ledger plus the
// configured FX pair, and upserts them.
//
// Per ticker, the fetch starts the day after the latest stored observation;
// tickers with no observations backfill from the oldest trade date. Failures
// on individual tickers are collected rather than aborting the run, so one
// delisted symbol does not block the rest of the sync.
func (s *MarketDataService) Sync(ctx context.Context) (SyncResult, error) {
	tickers, err := s.transactionRepo.ListTickers()
	if err != nil {
		return SyncResult{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToSyncPrices, err)
	}

	result := SyncResult{Tickers: tickers}
	today := engine.Day(time.Now())

	for _, ticker := range tickers {
		n, err := s.syncTicker(ctx, ticker, today)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", ticker, err))
			continue
		}
		result.PricesUpserted += n
	}

	n, err := s.syncFx(ctx, today)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", s.fxPair, err))
	}
	result.FxUpserted = n

	if result.PricesUpserted > 0 || result.FxUpserted > 0 {
		s.cache.Invalidate()
	}

	if err := s.settingRepo.SetSetting(ctx, repository.SettingLastSync, time.Now().UTC().Format(time.RFC3339)); err != nil {
		log.Printf("failed to record sync timestamp: %v", err)
	}

	return result, nil
}

// syncTicker fetches and stores missing closes for one instrument.
func (s *MarketDataService) syncTicker(ctx context.Context, ticker string, today time.Time) (int, error) {
	start := s.priceRepo.GetLatestPriceDate(ticker)
	if start.IsZero() {
		start = s.transactionRepo.GetOldestTradeDate(nil)
	} else {
		start = start.AddDate(0, 0, 1)
	}
	if start.After(today) {
		return 0, nil
	}

	chart, err := s.fetchCloses(ctx, ticker, start, today)
	if err != nil {
		return 0, err
	}

	return s.storeCloses(ctx, ticker, chart.Closes)
}

// fetchCloses requests the missing closes for one symbol, using the cheaper
// recent-range query when the gap fits inside it. Range results can reach
// back before start; those observations are dropped.
func (s *MarketDataService) fetchCloses(ctx context.Context, symbol string, start, today time.Time) (marketdata.Chart, error) {
	if start.Before(today.AddDate(0, 0, -(recentWindowDays-1))) {
		return s.client.FetchDailyCloses(ctx, symbol, start, today)
	}

	chart, err := s.client.FetchRecentCloses(ctx, symbol)
	if err != nil {
		return marketdata.Chart{}, err
	}

	kept := chart.Closes[:0]
	for _, c := range chart.Closes {
		if !c.Date.Before(start) {
			kept = append(kept, c)
		}
	}
	chart.Closes = kept
	return chart, nil
}

// syncFx fetches and stores missing exchange rate observations.
func (s *MarketDataService) syncFx(ctx context.Context, today time.Time) (int, error) {
	start := s.priceRepo.GetLatestFxDate()
	if start.IsZero() {
		start = s.transactionRepo.GetOldestTradeDate(nil)
	} else {
		start = start.AddDate(0, 0, 1)
	}
	if start.IsZero() || start.After(today) {
		return 0, nil
	}

	chart, err := s.fetchCloses(ctx, s.fxPair, start, today)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, c := range chart.Closes {
		err := s.priceRepo.UpsertFxRate(ctx, model.FxObservation{Date: c.Date, Rate: c.Close})
		if err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

func (s *MarketDataService) storeCloses(ctx context.Context, ticker string, closes []marketdata.ClosingPrice) (int, error) {
	stored := 0
	for _, c := range closes {
		err := s.priceRepo.UpsertPrice(ctx, model.PriceObservation{
			Ticker:     ticker,
			Date:       c.Date,
			ClosePrice: c.Close,
		})
		if err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// StartScheduler starts the cron scheduler for the configured sync schedule.
// Returns an error when the cron expression does not parse. No-op when the
// schedule is empty.
func (s *MarketDataService) StartScheduler() error {
	if s.schedule == "" {
		return nil
	}

	s.cronRun = cron.New()
	_, err := s.cronRun.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		result, err := s.Sync(ctx)
		if err != nil {
			log.Printf("scheduled market data sync failed: %v", err)
			return
		}
		log.Printf("scheduled market data sync: %d prices, %d fx rates, %d errors",
			result.PricesUpserted, result.FxUpserted, len(result.Errors))
	})
	if err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", s.schedule, err)
	}

	s.cronRun.Start()
	log.Printf("market data sync scheduled: %s", s.schedule)
	return nil
}

// StopScheduler stops the cron scheduler, waiting for a running job to finish.
func (s *MarketDataService) StopScheduler() {
	if s.cronRun != nil {
		<-s.cronRun.Stop().Done()
	}
}

// StoreProviderToken encrypts and persists the provider API token.
func (s *MarketDataService) StoreProviderToken(ctx context.Context, token string) error {
	if s.vault == nil {
		return fmt.Errorf("token storage disabled: no encryption key configured")
	}

	sealed, err := s.vault.Seal(token)
	if err != nil {
		return err
	}

	return s.settingRepo.SetSetting(ctx, repository.SettingProviderToken, sealed)
}

// ProviderToken decrypts and returns the stored provider API token.
func (s *MarketDataService) ProviderToken() (string, error) {
	if s.vault == nil {
		return "", fmt.Errorf("token storage disabled: no encryption key configured")
	}

	sealed, err := s.settingRepo.GetSetting(repository.SettingProviderToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperrors.ErrSettingNotFound
		}
		return "", err
	}

	return s.vault.Open(sealed)
}

// providerTokenSource supplies the stored token to the provider client.
// Requests go out unauthenticated when no vault or no token is configured.
func (s *MarketDataService) providerTokenSource() (string, bool) {
	if s.vault == nil {
		return "", false
	}
	token, err := s.ProviderToken()
	if err != nil {
		return "", false
	}
	return token, true
}

// SyncStatus describes the provider integration state for the dashboard
// settings view. The token itself is never included.
type SyncStatus struct {
	LastSync        string `json:"lastSync,omitempty"`
	TokenConfigured bool   `json:"tokenConfigured"`
	Schedule        string `json:"schedule,omitempty"`
}

// Status reports the last sync timestamp, whether a provider token is stored,
// and the configured schedule.
func (s *MarketDataService) Status() SyncStatus {
	status := SyncStatus{Schedule: s.schedule}
	if ts := s.LastSync(); !ts.IsZero() {
		status.LastSync = ts.Format(time.RFC3339)
	}
	if s.vault != nil {
		if _, err := s.ProviderToken(); err == nil {
			status.TokenConfigured = true
		}
	}
	return status
}

// LastSync returns the timestamp of the last successful sync run, or the zero
// time when no sync has run yet.
func (s *MarketDataService) LastSync() time.Time {
	value, err := s.settingRepo.GetSetting(repository.SettingLastSync)
	if err != nil {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
