package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vpnda/ledgerlink/pkg/models"
)

const transactionColumns = `
	id, user_id, account_id, external_id, amount, currency,
	date, description, category_id, pending, notes`

func scanTransaction(row *sql.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.UserID, &t.AccountID, &t.ExternalID, &t.Amount, &t.Currency,
		&t.Date, &t.Description, &t.CategoryID, &t.Pending, &t.Notes,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &t, nil
}

// InsertTransaction inserts a new ledger transaction and returns its id.
func (s *Store) InsertTransaction(ctx context.Context, t *models.Transaction) (int64, error) {
	query := `
	INSERT INTO transactions (
		user_id, account_id, external_id, amount, currency,
		date, description, category_id, pending, notes
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.q.ExecContext(ctx, query,
		t.UserID, t.AccountID, t.ExternalID, t.Amount, t.Currency,
		t.Date, t.Description, t.CategoryID, t.Pending, t.Notes)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction id: %w", err)
	}
	return id, nil
}

// UpdateTransactionSyncFields overwrites only the fields owned by the
// sync engine. The category is assigned solely when none is set so a
// manual categorization is never clobbered; notes and other user-owned
// fields are untouched.
func (s *Store) UpdateTransactionSyncFields(ctx context.Context, id int64, amount int64, date, description string, pending bool, categoryID *int64) error {
	query := `
	UPDATE transactions
	SET amount = ?, date = ?, description = ?, pending = ?,
		category_id = COALESCE(category_id, ?)
	WHERE id = ?
	`

	res, err := s.q.ExecContext(ctx, query, amount, date, description, pending, categoryID, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no transaction found with id: %d", id)
	}
	return nil
}

// GetTransaction retrieves a transaction by id, nil if absent.
func (s *Store) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `SELECT` + transactionColumns + ` FROM transactions WHERE id = ? LIMIT 1`
	return scanTransaction(s.q.QueryRowContext(ctx, query, id))
}

// FindTransactionByExternalID looks up a transaction by the provider id
// that created it, scoped to one internal account. This is the repair
// path for a transaction whose mapping row was never written.
func (s *Store) FindTransactionByExternalID(ctx context.Context, accountID int64, externalID string) (*models.Transaction, error) {
	query := `SELECT` + transactionColumns + ` FROM transactions
	WHERE account_id = ? AND external_id = ? LIMIT 1`
	return scanTransaction(s.q.QueryRowContext(ctx, query, accountID, externalID))
}

// DeleteTransaction removes a transaction. Missing rows are not an
// error: removal is idempotent.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// ListTransactionsForAccount retrieves an account's transactions, most
// recent first.
func (s *Store) ListTransactionsForAccount(ctx context.Context, accountID int64) ([]*models.Transaction, error) {
	query := `SELECT` + transactionColumns + ` FROM transactions
	WHERE account_id = ? ORDER BY date DESC, id DESC`

	rows, err := s.q.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(
			&t.ID, &t.UserID, &t.AccountID, &t.ExternalID, &t.Amount, &t.Currency,
			&t.Date, &t.Description, &t.CategoryID, &t.Pending, &t.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}
