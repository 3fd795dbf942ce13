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
	"github.com/advisorkit/portfolio-backend/internal/model"
	"github.com/advisorkit/portfolio-backend/internal/repository"
)

// AccountService handles account-related business logic operations.
type AccountService struct {
	accountRepo *repository.AccountRepository
}

// NewAccountService creates a new AccountService with the provided repository dependency.
func NewAccountService(accountRepo *repository.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// GetAccounts retrieves all accounts.
func (s *AccountService) GetAccounts() ([]model.Account, error) {
	return s.accountRepo.GetAccounts()
}

// GetAccount retrieves a single account by its ID.
func (s *AccountService) GetAccount(accountID string) (model.Account, error) {
	account, err := s.accountRepo.GetAccount(accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, apperrors.ErrAccountNotFound
		}
		return model.Account{}, err
	}
	return account, nil
}

// CreateAccount stores a new account.
func (s *AccountService) CreateAccount(ctx context.Context, req request.CreateAccountRequest) (*model.Account, error) {
	account := &model.Account{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Broker:    req.Broker,
		Number:    req.Number,
		CreatedAt: time.Now(),
	}

	if err := s.accountRepo.InsertAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// UpdateAccount applies the provided fields to an existing account.
func (s *AccountService) UpdateAccount(ctx context.Context, accountID string, req request.UpdateAccountRequest) (*model.Account, error) {
	account, err := s.GetAccount(accountID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Broker != nil {
		account.Broker = *req.Broker
	}
	if req.Number != nil {
		account.Number = *req.Number
	}

	if err := s.accountRepo.UpdateAccount(ctx, &account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	return &account, nil
}

// DeleteAccount removes an account. Accounts that still hold transactions
// cannot be deleted; the ledger rows would silently become unassigned and the
// per-account isolation of their cost basis would be lost.
func (s *AccountService) DeleteAccount(ctx context.Context, accountID string) error {
	count, err := s.accountRepo.CountTransactions(accountID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d transactions", apperrors.ErrAccountInUse, count)
	}

	if err := s.accountRepo.DeleteAccount(ctx, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrAccountNotFound
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}

	return nil
}
