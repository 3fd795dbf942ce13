package model

import "time"

// PriceObservation is one closing price for one instrument on one trading day.
// The series is sparse: weekends and market holidays have no rows.
type PriceObservation struct {
	Ticker     string    `json:"ticker"`
	Date       time.Time `json:"date"`
	ClosePrice float64   `json:"closePrice"`
}

// FxObservation is the exchange rate (home currency per foreign unit) on one day.
// Sparse like PriceObservation.
type FxObservation struct {
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}
