package engine

import (
	"time"

	"github.com/advisorkit/portfolio-backend/internal/model"
)

// ValuationSeries is the reconstructed historical series: for each date, the
// invested amount and market value of the holdings as of that date. All three
// slices are aligned 1:1.
type ValuationSeries struct {
	Dates       []time.Time
	Invested    []float64
	MarketValue []float64
}

// Reconstruct replays the ledger against the given ascending, unique calendar
// dates and values the as-of-date holdings on each of them.
//
// The observable contract is a full replay of transactions with trade date on
// or before each date; since holdings only change on trade dates, the
// implementation advances a single index through the sorted ledger instead of
// replaying from scratch per date.
//
// Valuation per held instrument is quantity times the carry-forward price,
// FX-converted when the instrument trades in the foreign currency. When no
// price exists on or before a date, the instrument's invested amount stands in
// for its value, so a freshly bought, not-yet-priced position does not vanish
// from the series. Both output arrays are non-negative; market value may be
// below invested (losses are representable).
func Reconstruct(
	txs []model.Transaction,
	prices *PriceSeries,
	dates []time.Time,
	conv CurrencyConverter,
	reporter Reporter,
) ValuationSeries {
	out := ValuationSeries{
		Dates:       dates,
		Invested:    make([]float64, len(dates)),
		MarketValue: make([]float64, len(dates)),
	}

	sorted := SortLedger(txs)
	holdings := make(map[string]model.HoldingState)
	next := 0

	for i, date := range dates {
		day := Day(date)

		for next < len(sorted) && !Day(sorted[next].TradeDate).After(day) {
			tx := sorted[next]
			holdings[tx.Ticker] = apply(holdings[tx.Ticker], tx, reporter)
			next++
		}

		var invested, market float64
		for ticker, h := range holdings {
			if h.Quantity <= 0 {
				continue
			}
			invested += h.TotalInvested

			price, ok := prices.PriceOnOrBefore(ticker, day)
			if !ok {
				// Unpriced as of this date: carry the invested amount.
				market += h.TotalInvested
				continue
			}
			if conv.IsForeign(h.Currency) {
				price = conv.ToHome(price, day, prices)
			} else if !conv.Known(h.Currency) {
				reporter.Report(Anomaly{
					Kind:   AnomalyUnknownCurrency,
					Ticker: ticker,
					Date:   day,
					Detail: "currency " + h.Currency + " not recognized, valued unconverted",
				})
			}
			market += h.Quantity * price
		}

		out.Invested[i] = max(0, invested)
		out.MarketValue[i] = max(0, market)
	}

	return out
}
