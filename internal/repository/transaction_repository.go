package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/advisorkit/portfolio-backend/internal/model"
)

// TransactionRepository provides data access methods for the transaction table.
// The ledger is append-only for accounting purposes: updates replace the whole
// row (preserving the insertion sequence) and deletes remove it; derived
// holdings are always recomputed from what remains.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	id, account_id, ticker, name, instrument_class, type, quantity,
	unit_price, currency, fx_rate_at_trade, fee, trade_date, memo, seq, created_at
`

// GetLedger retrieves the transaction ledger, optionally restricted to the
// given account IDs. Results are ordered by trade date ascending with the
// insertion sequence breaking same-day ties, which is the exact replay order
// the engine uses.
//
// An empty accountIDs slice means all accounts.
func (s *TransactionRepository) GetLedger(accountIDs []string) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM "transaction"`

	var args []any
	if len(accountIDs) > 0 {
		placeholders := make([]string, len(accountIDs))
		for i, id := range accountIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += ` WHERE account_id IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY trade_date ASC, seq ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactions, nil
}

// GetTransaction retrieves a single transaction by its ID.
// Returns sql.ErrNoRows wrapped when the transaction does not exist.
func (s *TransactionRepository) GetTransaction(transactionID string) (model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM "transaction" WHERE id = ?`

	row := s.db.QueryRow(query, transactionID)
	t, err := scanTransactionRow(row)
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

// InsertTransaction stores a new transaction and assigns its insertion
// sequence number. The sequence is the deterministic tie-break for same-day
// replay ordering, so it is allocated inside the insert statement rather than
// by the caller.
func (s *TransactionRepository) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	query := `
		INSERT INTO "transaction" (
			id, account_id, ticker, name, instrument_class, type, quantity,
			unit_price, currency, fx_rate_at_trade, fee, trade_date, memo, seq, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM "transaction"), ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		t.ID,
		nullableString(t.AccountID),
		t.Ticker,
		t.Name,
		t.InstrumentClass,
		t.Type,
		t.Quantity,
		t.UnitPrice,
		t.Currency,
		t.FxRateAtTrade,
		t.Fee,
		t.TradeDate.Format("2006-01-02"),
		t.Memo,
		t.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	// Read back the assigned sequence so the caller returns a complete record.
	err = s.db.QueryRowContext(ctx, `SELECT seq FROM "transaction" WHERE id = ?`, t.ID).Scan(&t.Seq)
	if err != nil {
		return fmt.Errorf("failed to read back transaction seq: %w", err)
	}

	return nil
}

// UpdateTransaction replaces the stored record with the given one, keeping
// the original insertion sequence. Edits replace the whole row; there is no
// in-place mutation of individual accounting fields.
func (s *TransactionRepository) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	query := `
		UPDATE "transaction"
		SET account_id = ?, ticker = ?, name = ?, instrument_class = ?, type = ?,
			quantity = ?, unit_price = ?, currency = ?, fx_rate_at_trade = ?,
			fee = ?, trade_date = ?, memo = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		nullableString(t.AccountID),
		t.Ticker,
		t.Name,
		t.InstrumentClass,
		t.Type,
		t.Quantity,
		t.UnitPrice,
		t.Currency,
		t.FxRateAtTrade,
		t.Fee,
		t.TradeDate.Format("2006-01-02"),
		t.Memo,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
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

// DeleteTransaction removes a transaction from the ledger.
func (s *TransactionRepository) DeleteTransaction(ctx context.Context, transactionID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM "transaction" WHERE id = ?`, transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
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

// GetOldestTradeDate finds the date of the earliest transaction, optionally
// restricted to the given accounts. Used to determine the starting point for
// historical valuation reconstruction.
//
// Returns time.Time{} (zero value) when there are no transactions.
func (s *TransactionRepository) GetOldestTradeDate(accountIDs []string) time.Time {
	query := `SELECT MIN(trade_date) FROM "transaction"`

	var args []any
	if len(accountIDs) > 0 {
		placeholders := make([]string, len(accountIDs))
		for i, id := range accountIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += ` WHERE account_id IN (` + strings.Join(placeholders, ",") + `)`
	}

	var oldestDateStr sql.NullString
	err := s.db.QueryRow(query, args...).Scan(&oldestDateStr)
	if err != nil || !oldestDateStr.Valid {
		return time.Time{}
	}

	oldestDate, err := time.Parse("2006-01-02", oldestDateStr.String)
	if err != nil {
		return time.Time{}
	}

	return oldestDate
}

// ListTickers returns the distinct tickers present in the ledger, used by the
// market-data sync to know which instruments need prices.
func (s *TransactionRepository) ListTickers() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT ticker FROM "transaction" ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickers: %w", err)
	}

	return tickers, nil
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(sc scanner) (model.Transaction, error) {
	var t model.Transaction
	var accountID, memo sql.NullString
	var tradeDateStr, createdAtStr string

	err := sc.Scan(
		&t.ID,
		&accountID,
		&t.Ticker,
		&t.Name,
		&t.InstrumentClass,
		&t.Type,
		&t.Quantity,
		&t.UnitPrice,
		&t.Currency,
		&t.FxRateAtTrade,
		&t.Fee,
		&tradeDateStr,
		&memo,
		&t.Seq,
		&createdAtStr,
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction table results: %w", err)
	}

	t.TradeDate, err = ParseTime(tradeDateStr)
	if err != nil || t.TradeDate.IsZero() {
		return model.Transaction{}, fmt.Errorf("failed to parse trade date: %w", err)
	}
	t.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	if accountID.Valid {
		t.AccountID = accountID.String
	}
	if memo.Valid {
		t.Memo = memo.String
	}

	return t, nil
}

func scanTransactionRow(row *sql.Row) (model.Transaction, error) {
	t, err := scanTransaction(row)
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
