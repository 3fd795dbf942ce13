package engine

import (
	"fmt"
	"sort"

	"github.com/advisorkit/portfolio-backend/internal/model"
)

// SortLedger returns a copy of the transactions sorted by trade date ascending.
// Same-day ties break on the insertion sequence number, so replay results are
// deterministic regardless of the order the slice arrived in.
func SortLedger(txs []model.Transaction) []model.Transaction {
	sorted := make([]model.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := Day(sorted[i].TradeDate), Day(sorted[j].TradeDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return sorted[i].Seq < sorted[j].Seq
	})
	return sorted
}

// ComputeHoldings replays the transaction ledger into per-instrument holding
// states as of now, using single-average-cost accounting.
//
// Buys add quantity and invested amount; the average price is the blended
// quotient. Sells reduce quantity and reduce the invested amount proportionally
// to the fraction sold, which applies the average cost basis implicitly without
// separate realized-gain bookkeeping.
//
// A sell exceeding the held quantity is a data-integrity violation. The replay
// does not clamp it: the anomaly goes to the reporter and the arithmetic result
// stands, possibly driving the quantity negative. Upstream validation is
// expected to have rejected such a sell before it reached the ledger.
//
// Instruments whose final quantity is zero or negative are dropped from the
// returned map; their history stays in the raw ledger for reconstruction.
// An empty ledger yields an empty map.
func ComputeHoldings(txs []model.Transaction, reporter Reporter) map[string]model.HoldingState {
	holdings := make(map[string]model.HoldingState)

	for _, tx := range SortLedger(txs) {
		holdings[tx.Ticker] = apply(holdings[tx.Ticker], tx, reporter)
	}

	// Fully exited instruments drop out of the current-holdings view.
	for ticker, h := range holdings {
		if h.Quantity <= 0 {
			delete(holdings, ticker)
		}
	}

	return holdings
}

// apply folds one transaction into the running holding state for its
// instrument. Shared by the current-holdings computation and the historical
// reconstruction so both replay identically.
func apply(h model.HoldingState, tx model.Transaction, reporter Reporter) model.HoldingState {
	h.Ticker = tx.Ticker
	h.Name = tx.Name
	h.InstrumentClass = tx.InstrumentClass
	h.Currency = tx.Currency

	switch tx.Type {
	case model.TransactionBuy:
		h.Quantity += tx.Quantity
		h.TotalInvested += tx.Quantity * tx.UnitPrice
	case model.TransactionSell:
		if tx.Quantity > h.Quantity {
			reporter.Report(Anomaly{
				Kind:   AnomalyOversell,
				Ticker: tx.Ticker,
				Date:   Day(tx.TradeDate),
				Detail: fmt.Sprintf("sold %.4f, held %.4f", tx.Quantity, h.Quantity),
			})
		}
		if h.Quantity > 0 {
			h.TotalInvested *= 1 - tx.Quantity/h.Quantity
		} else {
			h.TotalInvested = 0
		}
		h.Quantity -= tx.Quantity
	}

	if h.Quantity > 0 {
		h.AverageUnitPrice = h.TotalInvested / h.Quantity
	} else {
		h.AverageUnitPrice = 0
		h.TotalInvested = 0
	}

	return h
}
