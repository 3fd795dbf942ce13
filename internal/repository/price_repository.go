package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/advisorkit/portfolio-backend/internal/model"
)

// PriceRepository provides data access methods for the instrument_price and
// fx_rate tables. Both series are sparse: rows exist only for days the
// provider published an observation.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// GetPrices retrieves price observations for the given tickers within the
// date range, ordered by date ascending. The range is inclusive on both ends.
func (s *PriceRepository) GetPrices(tickers []string, start, end time.Time) ([]model.PriceObservation, error) {
	if len(tickers) == 0 {
		return []model.PriceObservation{}, nil
	}

	placeholders := make([]string, len(tickers))
	args := make([]any, 0, len(tickers)+2)
	for i, t := range tickers {
		placeholders[i] = "?"
		args = append(args, t)
	}
	args = append(args, start.Format("2006-01-02"), end.Format("2006-01-02"))

	query := `
		SELECT ticker, date, close_price
		FROM instrument_price
		WHERE ticker IN (` + strings.Join(placeholders, ",") + `)
		AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query instrument_price table: %w", err)
	}
	defer rows.Close()

	prices := []model.PriceObservation{}
	for rows.Next() {
		var p model.PriceObservation
		var dateStr string
		if err := rows.Scan(&p.Ticker, &dateStr, &p.ClosePrice); err != nil {
			return nil, fmt.Errorf("failed to scan instrument_price results: %w", err)
		}
		p.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price date: %w", err)
		}
		prices = append(prices, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instrument_price table: %w", err)
	}

	return prices, nil
}

// GetLatestPriceDate returns the most recent observation date for a ticker.
// Returns time.Time{} when the ticker has no observations, which tells the
// sync job to backfill from the oldest trade date instead.
func (s *PriceRepository) GetLatestPriceDate(ticker string) time.Time {
	var dateStr sql.NullString
	err := s.db.QueryRow(`SELECT MAX(date) FROM instrument_price WHERE ticker = ?`, ticker).Scan(&dateStr)
	if err != nil || !dateStr.Valid {
		return time.Time{}
	}

	date, err := time.Parse("2006-01-02", dateStr.String)
	if err != nil {
		return time.Time{}
	}
	return date
}

// UpsertPrice stores a price observation, replacing any existing observation
// for the same ticker and date. Re-syncs overwrite rather than duplicate.
func (s *PriceRepository) UpsertPrice(ctx context.Context, p model.PriceObservation) error {
	query := `
		INSERT INTO instrument_price (id, ticker, date, close_price)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET close_price = excluded.close_price
	`

	_, err := s.db.ExecContext(ctx, query,
		uuid.New().String(),
		p.Ticker,
		p.Date.Format("2006-01-02"),
		p.ClosePrice,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert instrument price: %w", err)
	}

	return nil
}

// GetFxRates retrieves exchange rate observations within the date range,
// ordered by date ascending. The range is inclusive on both ends.
func (s *PriceRepository) GetFxRates(start, end time.Time) ([]model.FxObservation, error) {
	query := `
		SELECT date, rate
		FROM fx_rate
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.db.Query(query, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query fx_rate table: %w", err)
	}
	defer rows.Close()

	rates := []model.FxObservation{}
	for rows.Next() {
		var f model.FxObservation
		var dateStr string
		if err := rows.Scan(&dateStr, &f.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan fx_rate results: %w", err)
		}
		f.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fx date: %w", err)
		}
		rates = append(rates, f)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fx_rate table: %w", err)
	}

	return rates, nil
}

// GetLatestFxDate returns the most recent exchange rate observation date.
// Returns time.Time{} when no observations exist.
func (s *PriceRepository) GetLatestFxDate() time.Time {
	var dateStr sql.NullString
	err := s.db.QueryRow(`SELECT MAX(date) FROM fx_rate`).Scan(&dateStr)
	if err != nil || !dateStr.Valid {
		return time.Time{}
	}

	date, err := time.Parse("2006-01-02", dateStr.String)
	if err != nil {
		return time.Time{}
	}
	return date
}

// UpsertFxRate stores an exchange rate observation, replacing any existing
// observation for the same date.
func (s *PriceRepository) UpsertFxRate(ctx context.Context, f model.FxObservation) error {
	query := `
		INSERT INTO fx_rate (id, date, rate)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET rate = excluded.rate
	`

	_, err := s.db.ExecContext(ctx, query,
		uuid.New().String(),
		f.Date.Format("2006-01-02"),
		f.Rate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert fx rate: %w", err)
	}

	return nil
}
