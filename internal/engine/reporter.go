// Package engine implements the portfolio holdings and valuation engine: cost-basis
// replay over an append-only transaction ledger, carry-forward price lookup, and
// historical valuation reconstruction. All computations are pure with respect to
// their inputs and safe to invoke concurrently.
package engine

import (
	"fmt"
	"log"
	"time"
)

// Anomaly kinds reported during ledger replay.
const (
	AnomalyOversell        = "oversell"
	AnomalyUnknownCurrency = "unknown_currency"
)

// Anomaly describes a data-integrity issue encountered while replaying the
// ledger. The engine never fails on these: human-entered data must degrade
// gracefully rather than crash a dashboard. Rejection belongs at the
// transaction-acceptance boundary, not here.
type Anomaly struct {
	Kind   string
	Ticker string
	Date   time.Time
	Detail string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s %s on %s: %s", a.Kind, a.Ticker, a.Date.Format("2006-01-02"), a.Detail)
}

// Reporter receives anomalies during replay. Callers decide whether to warn,
// collect, or ignore them.
type Reporter interface {
	Report(a Anomaly)
}

// LogReporter writes anomalies to the standard logger.
type LogReporter struct{}

func (LogReporter) Report(a Anomaly) {
	log.Printf("ledger anomaly: %s", a)
}

// NopReporter discards anomalies.
type NopReporter struct{}

func (NopReporter) Report(Anomaly) {}

// CollectingReporter accumulates anomalies for inspection, used by the
// presentation layer to surface warnings and by tests.
type CollectingReporter struct {
	Anomalies []Anomaly
}

func (r *CollectingReporter) Report(a Anomaly) {
	r.Anomalies = append(r.Anomalies, a)
}
