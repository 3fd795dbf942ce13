package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/advisorkit/portfolio-backend/internal/model"
)

// AccountRepository provides data access methods for the account table.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository with the provided database connection.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetAccounts retrieves all accounts ordered by name.
func (s *AccountRepository) GetAccounts() ([]model.Account, error) {
	query := `SELECT id, name, broker, number, created_at FROM account ORDER BY name ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query account table: %w", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account table: %w", err)
	}

	return accounts, nil
}

// GetAccount retrieves a single account by its ID.
// Returns sql.ErrNoRows when the account does not exist.
func (s *AccountRepository) GetAccount(accountID string) (model.Account, error) {
	query := `SELECT id, name, broker, number, created_at FROM account WHERE id = ?`

	row := s.db.QueryRow(query, accountID)
	return scanAccount(row)
}

// InsertAccount stores a new account.
func (s *AccountRepository) InsertAccount(ctx context.Context, a *model.Account) error {
	query := `INSERT INTO account (id, name, broker, number, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		a.ID,
		a.Name,
		a.Broker,
		a.Number,
		a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return nil
}

// UpdateAccount updates an existing account's mutable fields.
func (s *AccountRepository) UpdateAccount(ctx context.Context, a *model.Account) error {
	query := `UPDATE account SET name = ?, broker = ?, number = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, a.Name, a.Broker, a.Number, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// DeleteAccount removes an account.
func (s *AccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM account WHERE id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// CountTransactions returns the number of transactions assigned to the account.
// Used to refuse deleting an account that still holds ledger entries.
func (s *AccountRepository) CountTransactions(accountID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM "transaction" WHERE account_id = ?`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count account transactions: %w", err)
	}
	return count, nil
}

func scanAccount(sc scanner) (model.Account, error) {
	var a model.Account
	var broker, number sql.NullString
	var createdAtStr string

	err := sc.Scan(&a.ID, &a.Name, &broker, &number, &createdAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Account{}, err
		}
		return model.Account{}, fmt.Errorf("failed to scan account table results: %w", err)
	}

	a.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	if broker.Valid {
		a.Broker = broker.String
	}
	if number.Valid {
		a.Number = number.String
	}

	return a, nil
}
