package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/advisorkit/portfolio-backend/internal/api/request"
	"github.com/advisorkit/portfolio-backend/internal/apperrors"
	"github.com/advisorkit/portfolio-backend/internal/engine"
	"github.com/advisorkit/portfolio-backend/internal/model"
	"github.com/advisorkit/portfolio-backend/internal/repository"
)

// TransactionService handles ledger-related business logic operations.
// It enforces the sell constraint (a sell may not exceed the held quantity
// within its account scope) and invalidates the valuation cache on every
// write, since any ledger change can alter every derived number.
type TransactionService struct {
	transactionRepo *repository.TransactionRepository
	accountRepo     *repository.AccountRepository
	cache           *engine.SeriesCache
}

// NewTransactionService creates a new TransactionService with the provided dependencies.
func NewTransactionService(
	transactionRepo *repository.TransactionRepository,
	accountRepo *repository.AccountRepository,
	cache *engine.SeriesCache,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		cache:           cache,
	}
}

// GetTransactions retrieves the ledger, optionally restricted to one account.
// Returns enriched transaction data including the account name for display.
func (s *TransactionService) GetTransactions(accountID string) ([]model.TransactionResponse, error) {
	var scope []string
	if accountID != "" {
		if _, err := s.getAccount(accountID); err != nil {
			return nil, err
		}
		scope = []string{accountID}
	}

	transactions, err := s.transactionRepo.GetLedger(scope)
	if err != nil {
		return nil, err
	}

	names, err := s.accountNames()
	if err != nil {
		return nil, err
	}

	responses := make([]model.TransactionResponse, len(transactions))
	for i, tx := range transactions {
		responses[i] = toTransactionResponse(tx, names[tx.AccountID])
	}
	return responses, nil
}

// GetTransaction retrieves a single transaction by its ID.
func (s *TransactionService) GetTransaction(transactionID string) (model.TransactionResponse, error) {
	tx, err := s.transactionRepo.GetTransaction(transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TransactionResponse{}, apperrors.ErrTransactionNotFound
		}
		return model.TransactionResponse{}, err
	}

	accountName := ""
	if tx.AccountID != "" {
		if account, err := s.accountRepo.GetAccount(tx.AccountID); err == nil {
			accountName = account.Name
		}
	}

	return toTransactionResponse(tx, accountName), nil
}

// CreateTransaction validates and stores a new buy or sell.
//
// Sells are checked against the replayed ledger of their account scope: the
// candidate ledger (existing transactions plus the proposed one) must not
// contain an oversell of the instrument at any point. The check runs over the
// whole ledger rather than just the final state because a backdated sell can
// be covered today yet uncovered on its trade date.
func (s *TransactionService) CreateTransaction(ctx context.Context, req request.CreateTransactionRequest) (*model.Transaction, error) {
	tradeDate, err := time.Parse("2006-01-02", req.TradeDate)
	if err != nil {
		return nil, err
	}

	if req.AccountID != "" {
		if _, err := s.getAccount(req.AccountID); err != nil {
			return nil, err
		}
	}

	transaction := &model.Transaction{
		ID:              uuid.New().String(),
		AccountID:       req.AccountID,
		Ticker:          req.Ticker,
		Name:            req.Name,
		InstrumentClass: req.InstrumentClass,
		Type:            req.Type,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		Currency:        req.Currency,
		FxRateAtTrade:   req.FxRateAtTrade,
		Fee:             req.Fee,
		TradeDate:       tradeDate,
		Memo:            req.Memo,
		CreatedAt:       time.Now(),
	}

	if transaction.Type == model.TransactionSell {
		if err := s.checkSellCoverage(*transaction, ""); err != nil {
			return nil, err
		}
	}

	if err := s.transactionRepo.InsertTransaction(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	s.cache.Invalidate()

	return transaction, nil
}

// UpdateTransaction applies the provided fields to an existing transaction.
// The stored row is replaced wholesale; the insertion sequence is preserved so
// same-day replay order does not shift. Sell coverage is re-checked against
// the ledger with the edited transaction substituted in.
func (s *TransactionService) UpdateTransaction(ctx context.Context, transactionID string, req request.UpdateTransactionRequest) (*model.Transaction, error) {
	transaction, err := s.transactionRepo.GetTransaction(transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, err
	}

	if req.AccountID != nil {
		if *req.AccountID != "" {
			if _, err := s.getAccount(*req.AccountID); err != nil {
				return nil, err
			}
		}
		transaction.AccountID = *req.AccountID
	}
	if req.Ticker != nil {
		transaction.Ticker = *req.Ticker
	}
	if req.Name != nil {
		transaction.Name = *req.Name
	}
	if req.InstrumentClass != nil {
		transaction.InstrumentClass = *req.InstrumentClass
	}
	if req.Type != nil {
		transaction.Type = *req.Type
	}
	if req.Quantity != nil {
		transaction.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		transaction.UnitPrice = *req.UnitPrice
	}
	if req.Currency != nil {
		transaction.Currency = *req.Currency
	}
	if req.FxRateAtTrade != nil {
		transaction.FxRateAtTrade = *req.FxRateAtTrade
	}
	if req.Fee != nil {
		transaction.Fee = *req.Fee
	}
	if req.TradeDate != nil {
		tradeDate, err := time.Parse("2006-01-02", *req.TradeDate)
		if err != nil {
			return nil, err
		}
		transaction.TradeDate = tradeDate
	}
	if req.Memo != nil {
		transaction.Memo = *req.Memo
	}

	if transaction.Type == model.TransactionSell {
		if err := s.checkSellCoverage(transaction, transaction.ID); err != nil {
			return nil, err
		}
	}

	if err := s.transactionRepo.UpdateTransaction(ctx, &transaction); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	s.cache.Invalidate()

	return &transaction, nil
}

// DeleteTransaction removes a transaction from the ledger. Holdings and
// valuations recompute from the remaining history on the next read.
func (s *TransactionService) DeleteTransaction(ctx context.Context, transactionID string) error {
	if err := s.transactionRepo.DeleteTransaction(ctx, transactionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrTransactionNotFound
		}
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	s.cache.Invalidate()

	return nil
}

// checkSellCoverage replays the candidate's account-scope ledger with the
// candidate included (and, for updates, the stored version excluded) and
// rejects the sell if the replay reports an oversell of the candidate's
// instrument. Coverage is per account: holdings in other accounts do not
// cover a sell in this one.
func (s *TransactionService) checkSellCoverage(candidate model.Transaction, replaceID string) error {
	var scope []string
	if candidate.AccountID != "" {
		scope = []string{candidate.AccountID}
	}

	existing, err := s.transactionRepo.GetLedger(scope)
	if err != nil {
		return err
	}

	// Unassigned candidates replay against the unassigned subset only; the
	// empty account ID selects exactly that subset.
	scoped := engine.FilterByAccounts(existing, []string{candidate.AccountID})

	ledger := make([]model.Transaction, 0, len(scoped)+1)
	var maxSeq int64
	for _, tx := range scoped {
		if replaceID != "" && tx.ID == replaceID {
			continue
		}
		if tx.Seq > maxSeq {
			maxSeq = tx.Seq
		}
		ledger = append(ledger, tx)
	}
	// A new candidate has no sequence yet; it replays after existing
	// same-day entries, matching the sequence the insert will assign.
	if candidate.Seq == 0 {
		candidate.Seq = maxSeq + 1
	}
	ledger = append(ledger, candidate)

	collector := &engine.CollectingReporter{}
	engine.ComputeHoldings(ledger, collector)

	for _, anomaly := range collector.Anomalies {
		if anomaly.Kind == engine.AnomalyOversell && anomaly.Ticker == candidate.Ticker {
			return fmt.Errorf("%w: %s", apperrors.ErrInsufficientQuantity, anomaly.Detail)
		}
	}

	return nil
}

func (s *TransactionService) getAccount(accountID string) (model.Account, error) {
	account, err := s.accountRepo.GetAccount(accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, apperrors.ErrAccountNotFound
		}
		return model.Account{}, err
	}
	return account, nil
}

func (s *TransactionService) accountNames() (map[string]string, error) {
	accounts, err := s.accountRepo.GetAccounts()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	return names, nil
}

func toTransactionResponse(tx model.Transaction, accountName string) model.TransactionResponse {
	return model.TransactionResponse{
		ID:              tx.ID,
		AccountID:       tx.AccountID,
		AccountName:     accountName,
		Ticker:          tx.Ticker,
		Name:            tx.Name,
		InstrumentClass: tx.InstrumentClass,
		Type:            tx.Type,
		Quantity:        tx.Quantity,
		UnitPrice:       tx.UnitPrice,
		Currency:        tx.Currency,
		FxRateAtTrade:   tx.FxRateAtTrade,
		Fee:             tx.Fee,
		TradeDate:       tx.TradeDate,
		Memo:            tx.Memo,
	}
}
