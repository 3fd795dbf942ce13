package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyConverter converts foreign-currency unit prices to the home currency
// using the FX rate effective on a given date, with carry-forward fallback.
// The system supports exactly two currencies: home and one foreign.
type CurrencyConverter struct {
	HomeCurrency    string
	ForeignCurrency string

	// FallbackRate is used when no FX observation exists on or before the
	// requested date. Conversion must never fail for missing FX data, since
	// historical reconstruction cannot tolerate gaps in a moving chart.
	FallbackRate float64
}

// ToHome converts a foreign-currency unit price to the home currency using the
// rate effective on the given date.
func (c CurrencyConverter) ToHome(foreignUnitPrice float64, date time.Time, prices *PriceSeries) float64 {
	rate, ok := prices.FxOnOrBefore(date)
	if !ok {
		rate = c.FallbackRate
	}
	return foreignUnitPrice * rate
}

// IsForeign reports whether the currency code is the configured foreign
// currency. Codes that match neither currency are the caller's anomaly to
// report.
func (c CurrencyConverter) IsForeign(currency string) bool {
	return currency == c.ForeignCurrency
}

// Known reports whether the currency code is one the converter recognizes.
func (c CurrencyConverter) Known(currency string) bool {
	return currency == c.HomeCurrency || currency == c.ForeignCurrency
}

// RoundHome rounds a value to the home currency's smallest accounted unit.
// Rounding happens at the persistence/response boundary only, not at every
// intermediate computation, to avoid compounding rounding error across replay.
func (c CurrencyConverter) RoundHome(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
