package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/advisorkit/portfolio-backend/internal/api/request"
)

// ValidateImportPrices validates a manual price import request.
// Every observation needs a parseable date and a positive close.
func ValidateImportPrices(req request.ImportPricesRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Ticker) == "" {
		errors["ticker"] = "ticker is required"
	}
	if len(req.Prices) == 0 {
		errors["prices"] = "at least one price is required"
	}

	for i, p := range req.Prices {
		if _, err := time.Parse("2006-01-02", p.Date); err != nil {
			errors[fmt.Sprintf("prices[%d].date", i)] = err.Error()
		}
		if p.ClosePrice <= 0 {
			errors[fmt.Sprintf("prices[%d].closePrice", i)] = "closePrice must be positive"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateImportFxRates validates a manual exchange rate import request.
func ValidateImportFxRates(req request.ImportFxRatesRequest) error {
	errors := make(map[string]string)

	if len(req.Rates) == 0 {
		errors["rates"] = "at least one rate is required"
	}

	for i, f := range req.Rates {
		if _, err := time.Parse("2006-01-02", f.Date); err != nil {
			errors[fmt.Sprintf("rates[%d].date", i)] = err.Error()
		}
		if f.Rate <= 0 {
			errors[fmt.Sprintf("rates[%d].rate", i)] = "rate must be positive"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
