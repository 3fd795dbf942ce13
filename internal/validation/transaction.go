package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/advisorkit/portfolio-backend/internal/api/request"
	"github.com/advisorkit/portfolio-backend/internal/model"
)

// ValidTransactionType contains the allowed transaction type values.
var ValidTransactionType = map[string]bool{
	model.TransactionBuy: true, model.TransactionSell: true,
}

// ValidateCreateTransaction validates a transaction creation request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - ticker, name, currency: Must be non-empty
//   - tradeDate: Must be in YYYY-MM-DD format
//   - type: Must be one of: buy, sell
//   - quantity: Must be positive
//   - unitPrice: Must be positive
//
// Optional fields:
//   - accountId: Must be a valid UUID if provided
//   - fee, fxRateAtTrade: Must be non-negative if provided
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	if req.AccountID != "" {
		if err := ValidateUUID(req.AccountID); err != nil {
			return err
		}
	}

	errors := make(map[string]string)

	if strings.TrimSpace(req.Ticker) == "" {
		errors["ticker"] = "ticker is required"
	}
	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	}
	if strings.TrimSpace(req.Currency) == "" {
		errors["currency"] = "currency is required"
	}

	if strings.TrimSpace(req.TradeDate) == "" {
		errors["tradeDate"] = "tradeDate is required"
	} else if _, err := time.Parse("2006-01-02", req.TradeDate); err != nil {
		errors["tradeDate"] = err.Error()
	}

	if strings.TrimSpace(req.Type) == "" {
		errors["type"] = "type is required"
	} else if !ValidTransactionType[req.Type] {
		errors["type"] = fmt.Sprintf("invalid type: %s", req.Type)
	}

	if req.Quantity <= 0.0 {
		errors["quantity"] = "quantity must be positive"
	}

	if req.UnitPrice <= 0.0 {
		errors["unitPrice"] = "unitPrice must be positive"
	}

	if req.Fee < 0.0 {
		errors["fee"] = "fee cannot be negative"
	}

	if req.FxRateAtTrade < 0.0 {
		errors["fxRateAtTrade"] = "fxRateAtTrade cannot be negative"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateTransaction validates a transaction update request.
// All fields are optional, but if provided, they must meet the same constraints as create.
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateUpdateTransaction(req request.UpdateTransactionRequest) error {
	if req.AccountID != nil && *req.AccountID != "" {
		if err := ValidateUUID(*req.AccountID); err != nil {
			return err
		}
	}

	errors := make(map[string]string)

	if req.Ticker != nil && strings.TrimSpace(*req.Ticker) == "" {
		errors["ticker"] = "ticker cannot be empty"
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		errors["name"] = "name cannot be empty"
	}
	if req.Currency != nil && strings.TrimSpace(*req.Currency) == "" {
		errors["currency"] = "currency cannot be empty"
	}

	if req.TradeDate != nil {
		if strings.TrimSpace(*req.TradeDate) == "" {
			errors["tradeDate"] = "tradeDate cannot be empty"
		} else if _, err := time.Parse("2006-01-02", *req.TradeDate); err != nil {
			errors["tradeDate"] = err.Error()
		}
	}

	if req.Type != nil {
		if strings.TrimSpace(*req.Type) == "" {
			errors["type"] = "type cannot be empty"
		} else if !ValidTransactionType[*req.Type] {
			errors["type"] = fmt.Sprintf("invalid type: %s", *req.Type)
		}
	}

	if req.Quantity != nil && *req.Quantity <= 0.0 {
		errors["quantity"] = "quantity must be positive"
	}

	if req.UnitPrice != nil && *req.UnitPrice <= 0.0 {
		errors["unitPrice"] = "unitPrice must be positive"
	}

	if req.Fee != nil && *req.Fee < 0.0 {
		errors["fee"] = "fee cannot be negative"
	}

	if req.FxRateAtTrade != nil && *req.FxRateAtTrade < 0.0 {
		errors["fxRateAtTrade"] = "fxRateAtTrade cannot be negative"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
