package marketdata

import "time"

// Response represents the raw JSON response structure from the quote provider's
// chart API. The structure maps the provider format directly:
//
//   - Chart.Result: Array of result objects (typically contains one element)
//   - Chart.Result[].Meta: Symbol metadata (name, currency, exchange)
//   - Chart.Result[].Timestamp: Unix timestamps for each data point
//   - Chart.Result[].Indicators: Price data arrays (open, close, high, low, volume)
//   - Chart.Error: Optional error message from the provider
type Response struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency         string `json:"currency"`
				Symbol           string `json:"symbol"`
				ExchangeName     string `json:"exchangeName"`
				FullExchangeName string `json:"fullExchangeName"`
				LongName         string `json:"longName"`
				Shortname        string `json:"shortName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *string `json:"error"`
	} `json:"chart"`
}

// Chart is the parsed, application-facing form of a provider response: symbol
// metadata plus one ClosingPrice per trading day. Days where the provider
// published no close (market holidays inside the range) are dropped during
// parsing, which keeps the stored series sparse.
type Chart struct {
	Symbol   string
	Currency string
	Closes   []ClosingPrice
}

// ClosingPrice is one trading day's close for a symbol.
type ClosingPrice struct {
	Date  time.Time
	Close float64
}
