package engine

import (
	"time"

	"github.com/advisorkit/portfolio-backend/internal/model"
)

// FilterByAccounts returns the transactions belonging to the given account
// IDs. An empty selection means "all accounts" and returns the input
// unfiltered; the dashboard represents the all-accounts view as an empty
// selection set.
func FilterByAccounts(txs []model.Transaction, accountIDs []string) []model.Transaction {
	if len(accountIDs) == 0 {
		return txs
	}

	selected := make(map[string]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		selected[id] = struct{}{}
	}

	filtered := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if _, ok := selected[tx.AccountID]; ok {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}

// PerAccountTotals computes invested amount and market value independently per
// account. Cost basis is computed within each account's own transaction
// subset: an instrument split across two accounts has two independent
// average-cost lineages, never one merged one.
//
// The result contains an entry for every ID in accountIDs (zero totals when
// the account has no transactions) plus an entry for every account ID found in
// the ledger. Transactions without an account fall under the empty-string key.
func PerAccountTotals(
	txs []model.Transaction,
	accountIDs []string,
	prices *PriceSeries,
	asOf time.Time,
	conv CurrencyConverter,
	reporter Reporter,
) map[string]model.AccountTotals {
	byAccount := make(map[string][]model.Transaction)
	for _, id := range accountIDs {
		byAccount[id] = nil
	}
	for _, tx := range txs {
		byAccount[tx.AccountID] = append(byAccount[tx.AccountID], tx)
	}

	totals := make(map[string]model.AccountTotals, len(byAccount))
	for accountID, accountTxs := range byAccount {
		var t model.AccountTotals
		for ticker, h := range ComputeHoldings(accountTxs, reporter) {
			t.InvestedAmount += h.TotalInvested

			price, ok := prices.PriceOnOrBefore(ticker, asOf)
			if !ok {
				t.MarketValue += h.TotalInvested
				continue
			}
			if conv.IsForeign(h.Currency) {
				price = conv.ToHome(price, asOf, prices)
			}
			t.MarketValue += h.Quantity * price
		}
		totals[accountID] = t
	}

	return totals
}
