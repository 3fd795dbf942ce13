package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client fetches daily closing prices from the quote provider's chart API.
// The same endpoint serves both instrument symbols and FX pair symbols
// (e.g. "USDEUR=X"), so one client covers both series.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokenSource func() (string, bool)
}

// NewClient creates a provider client against the given base URL.
// Tests point this at a local httptest server.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetTokenSource registers a callback that supplies the provider API token.
// When the source yields a token, requests carry it as a bearer credential;
// otherwise requests go out unauthenticated.
func (c *Client) SetTokenSource(source func() (string, bool)) {
	c.tokenSource = source
}

// FetchDailyCloses fetches daily closing prices for a symbol within the date
// range (inclusive on both ends) and returns them parsed into a Chart.
func (c *Client) FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) (Chart, error) {
	url := fmt.Sprintf(
		"%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		c.baseURL,
		symbol,
		start.Unix(),
		// The provider treats period2 as exclusive; extend by a day so the
		// end date's close is included.
		end.Add(24*time.Hour).Unix(),
	)

	response, err := c.query(ctx, url)
	if err != nil {
		return Chart{}, err
	}

	return parseChart(symbol, response)
}

// FetchRecentCloses fetches the last 5 trading days of closing prices for a
// symbol through the provider's range query. The sync uses it instead of a
// period window when the stored series is at most a few days behind.
func (c *Client) FetchRecentCloses(ctx context.Context, symbol string) (Chart, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d", c.baseURL, symbol)

	response, err := c.query(ctx, url)
	if err != nil {
		return Chart{}, err
	}

	return parseChart(symbol, response)
}

// query executes a single request against the provider and decodes the raw
// response. The User-Agent header mimics a browser because the provider
// rejects default Go client requests.
func (c *Client) query(ctx context.Context, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")
	if c.tokenSource != nil {
		if token, ok := c.tokenSource(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, err
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("provider error: %s", *response.Chart.Error)
	}

	return response, nil
}

// parseChart converts a raw provider response into a Chart of daily closes.
// Validates that timestamp and close arrays are present and aligned.
func parseChart(symbol string, response Response) (Chart, error) {
	if len(response.Chart.Result) == 0 {
		return Chart{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}

	result := response.Chart.Result[0]

	if len(result.Timestamp) == 0 {
		return Chart{}, fmt.Errorf("no price data returned for symbol %s", symbol)
	}
	if len(result.Indicators.Quote) == 0 {
		return Chart{}, fmt.Errorf("no close prices returned for symbol %s", symbol)
	}

	closes := result.Indicators.Quote[0].Close
	if len(closes) != len(result.Timestamp) {
		return Chart{}, fmt.Errorf("mismatched data lengths for symbol %s", symbol)
	}

	chart := Chart{
		Symbol:   result.Meta.Symbol,
		Currency: result.Meta.Currency,
		Closes:   make([]ClosingPrice, 0, len(closes)),
	}

	for i, ts := range result.Timestamp {
		if closes[i] == 0 {
			// Provider emits zero closes for days with no trading.
			continue
		}
		chart.Closes = append(chart.Closes, ClosingPrice{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: closes[i],
		})
	}

	return chart, nil
}
