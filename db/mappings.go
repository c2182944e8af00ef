package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/vpnda/ledgerlink/pkg/models"
)

// ErrMappingExists is returned by InsertMapping when another writer got
// there first. Callers treat it as "already applied" and re-read.
var ErrMappingExists = errors.New("transaction mapping already exists")

// InsertMapping records the association between a provider transaction
// id and an internal transaction. Uniqueness of
// (user_id, provider_transaction_id) is enforced by the store itself, so
// two racing writers cannot both believe they were first.
func (s *Store) InsertMapping(ctx context.Context, m *models.TransactionMapping) error {
	query := `
	INSERT INTO transaction_mappings (user_id, provider_transaction_id, provider_account_id, transaction_id)
	VALUES (?, ?, ?, ?)
	`

	_, err := s.q.ExecContext(ctx, query,
		m.UserID, m.ProviderTransactionID, m.ProviderAccountID, m.TransactionID)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrMappingExists
		}
		return fmt.Errorf("failed to insert mapping: %w", err)
	}
	return nil
}

// GetMapping retrieves the mapping for a provider transaction id, nil if
// the transaction has never been applied.
func (s *Store) GetMapping(ctx context.Context, userID int64, providerTransactionID string) (*models.TransactionMapping, error) {
	query := `
	SELECT user_id, provider_transaction_id, provider_account_id, transaction_id
	FROM transaction_mappings
	WHERE user_id = ? AND provider_transaction_id = ?
	LIMIT 1
	`

	var m models.TransactionMapping
	err := s.q.QueryRowContext(ctx, query, userID, providerTransactionID).Scan(
		&m.UserID,
		&m.ProviderTransactionID,
		&m.ProviderAccountID,
		&m.TransactionID,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get mapping: %w", err)
	}
	return &m, nil
}

// DeleteMapping removes a mapping row. Only valid in lock-step with
// deleting the mapped transaction.
func (s *Store) DeleteMapping(ctx context.Context, userID int64, providerTransactionID string) error {
	query := `DELETE FROM transaction_mappings WHERE user_id = ? AND provider_transaction_id = ?`

	if _, err := s.q.ExecContext(ctx, query, userID, providerTransactionID); err != nil {
		return fmt.Errorf("failed to delete mapping: %w", err)
	}
	return nil
}
