package request

// PriceImport is one observation in a manual price import.
type PriceImport struct {
	Date       string  `json:"date"`
	ClosePrice float64 `json:"closePrice"`
}

// ImportPricesRequest carries manually entered closing prices for one instrument.
type ImportPricesRequest struct {
	Ticker string        `json:"ticker"`
	Prices []PriceImport `json:"prices"`
}

// FxImport is one exchange rate observation in a manual import.
type FxImport struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// ImportFxRatesRequest carries manually entered exchange rates.
type ImportFxRatesRequest struct {
	Rates []FxImport `json:"rates"`
}

// ProviderTokenRequest carries the quote provider API token to store.
type ProviderTokenRequest struct {
	Token string `json:"token"`
}
