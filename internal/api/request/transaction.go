package request

type CreateTransactionRequest struct {
	AccountID       string  `json:"accountId,omitempty"`
	Ticker          string  `json:"ticker"`
	Name            string  `json:"name"`
	InstrumentClass string  `json:"instrumentClass"`
	Type            string  `json:"type"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unitPrice"`
	Currency        string  `json:"currency"`
	FxRateAtTrade   float64 `json:"fxRateAtTrade,omitempty"`
	Fee             float64 `json:"fee,omitempty"`
	TradeDate       string  `json:"tradeDate"`
	Memo            string  `json:"memo,omitempty"`
}

type UpdateTransactionRequest struct {
	AccountID       *string  `json:"accountId,omitempty"`
	Ticker          *string  `json:"ticker,omitempty"`
	Name            *string  `json:"name,omitempty"`
	InstrumentClass *string  `json:"instrumentClass,omitempty"`
	Type            *string  `json:"type,omitempty"`
	Quantity        *float64 `json:"quantity,omitempty"`
	UnitPrice       *float64 `json:"unitPrice,omitempty"`
	Currency        *string  `json:"currency,omitempty"`
	FxRateAtTrade   *float64 `json:"fxRateAtTrade,omitempty"`
	Fee             *float64 `json:"fee,omitempty"`
	TradeDate       *string  `json:"tradeDate,omitempty"`
	Memo            *string  `json:"memo,omitempty"`
}
