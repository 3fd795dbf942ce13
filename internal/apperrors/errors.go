package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrAccountNotFound indicates that an account with the given ID does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrPriceNotFound indicates no price record for a specific ticker and date combination.
	ErrPriceNotFound = errors.New("price not found")

	// ErrFxRateNotFound indicates no exchange rate record on or before the requested date.
	ErrFxRateNotFound = errors.New("exchange rate not found")

	// ErrSettingNotFound indicates that a system setting key has not been stored.
	ErrSettingNotFound = errors.New("setting not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInsufficientQuantity indicates that a sell transaction cannot be accepted
	// because the account does not hold enough units of the instrument.
	ErrInsufficientQuantity = errors.New("insufficient quantity for sale")

	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrUnknownCurrency indicates a currency code that is neither the home nor
	// the foreign currency the system is configured for.
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrAccountInUse indicates that an account cannot be deleted because
	// transactions still reference it.
	ErrAccountInUse = errors.New("account has transactions")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
// These errors indicate that an operation failed, but not due to missing entities or validation issues.
var (
	ErrFailedToRetrieveAccounts     = errors.New("failed to retrieve accounts")
	ErrFailedToRetrieveAccount      = errors.New("failed to retrieve account")
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToRetrieveTransaction  = errors.New("failed to retrieve transaction")
	ErrFailedToRetrieveHoldings     = errors.New("failed to retrieve holdings")
	ErrFailedToRetrieveHistory      = errors.New("failed to retrieve valuation history")
	ErrFailedToRetrievePrices       = errors.New("failed to retrieve prices")
	ErrFailedToRetrieveFxRates      = errors.New("failed to retrieve exchange rates")
	ErrFailedToImportPrices         = errors.New("failed to import prices")
	ErrFailedToSyncPrices           = errors.New("failed to sync market data")
	ErrFailedToGetVersionInfo       = errors.New("failed to get version information")
)
