package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vpnda/ledgerlink/pkg/models"
)

// GetAccountLink retrieves the link for a provider account under a
// connection, nil if the account has not been seen before.
func (s *Store) GetAccountLink(ctx context.Context, connectionID int64, providerAccountID string) (*models.AccountLink, error) {
	query := `
	SELECT connection_id, provider_account_id, account_id, name, type, subtype, mask
	FROM account_links
	WHERE connection_id = ? AND provider_account_id = ?
	LIMIT 1
	`

	var link models.AccountLink
	err := s.q.QueryRowContext(ctx, query, connectionID, providerAccountID).Scan(
		&link.ConnectionID,
		&link.ProviderAccountID,
		&link.AccountID,
		&link.Name,
		&link.Type,
		&link.Subtype,
		&link.Mask,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get account link: %w", err)
	}
	return &link, nil
}

// ListAccountLinks retrieves every link under a connection.
func (s *Store) ListAccountLinks(ctx context.Context, connectionID int64) ([]*models.AccountLink, error) {
	query := `
	SELECT connection_id, provider_account_id, account_id, name, type, subtype, mask
	FROM account_links
	WHERE connection_id = ?
	`

	rows, err := s.q.QueryContext(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query account links: %w", err)
	}
	defer rows.Close()

	var links []*models.AccountLink
	for rows.Next() {
		var link models.AccountLink
		err := rows.Scan(
			&link.ConnectionID,
			&link.ProviderAccountID,
			&link.AccountID,
			&link.Name,
			&link.Type,
			&link.Subtype,
			&link.Mask,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account link: %w", err)
		}
		links = append(links, &link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account links: %w", err)
	}
	return links, nil
}

// CreateLinkedAccount inserts a new account and its link in one step and
// returns the internal account id. The UNIQUE constraint on
// (connection_id, provider_account_id) rejects a duplicate link.
func (s *Store) CreateLinkedAccount(ctx context.Context, account *models.Account, link *models.AccountLink) (int64, error) {
	query := `
	INSERT INTO accounts (
		user_id, name, type, subtype, mask, currency,
		balance, available_balance, credit_limit, available_credit,
		sync_status, last_sync_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.q.ExecContext(ctx, query,
		account.UserID, account.Name, account.Type, account.Subtype,
		account.Mask, account.Currency, account.Balance,
		account.AvailableBalance, account.CreditLimit, account.AvailableCredit,
		models.SyncStatusOK, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create account: %w", err)
	}

	accountID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get account id: %w", err)
	}

	query = `
	INSERT INTO account_links (connection_id, provider_account_id, account_id, name, type, subtype, mask)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.q.ExecContext(ctx, query,
		link.ConnectionID, link.ProviderAccountID, accountID,
		link.Name, link.Type, link.Subtype, link.Mask)
	if err != nil {
		return 0, fmt.Errorf("failed to create account link: %w", err)
	}

	return accountID, nil
}

// UpdateLinkedAccount refreshes the descriptive fields cached on both the
// account and its link from the provider's latest snapshot.
func (s *Store) UpdateLinkedAccount(ctx context.Context, link *models.AccountLink) error {
	query := `
	UPDATE account_links SET name = ?, type = ?, subtype = ?, mask = ?
	WHERE connection_id = ? AND provider_account_id = ?
	`

	_, err := s.q.ExecContext(ctx, query,
		link.Name, link.Type, link.Subtype, link.Mask,
		link.ConnectionID, link.ProviderAccountID)
	if err != nil {
		return fmt.Errorf("failed to update account link: %w", err)
	}

	query = `UPDATE accounts SET name = ?, type = ?, subtype = ?, mask = ? WHERE id = ?`
	_, err = s.q.ExecContext(ctx, query,
		link.Name, link.Type, link.Subtype, link.Mask, link.AccountID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// UpdateAccountBalances writes the sync-owned balance fields.
func (s *Store) UpdateAccountBalances(ctx context.Context, accountID int64, balance int64, available, limit, availableCredit *int64) error {
	query := `
	UPDATE accounts
	SET balance = ?, available_balance = ?, credit_limit = ?, available_credit = ?
	WHERE id = ?
	`

	res, err := s.q.ExecContext(ctx, query, balance, available, limit, availableCredit, accountID)
	if err != nil {
		return fmt.Errorf("failed to update account balances: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no account found with id: %d", accountID)
	}
	return nil
}

// UpdateAccountSyncStatus writes the health fields consumed by alerting.
// A nil errMsg clears any previously recorded error; a nil at leaves
// last_sync_at untouched so a failed sync surfaces as staleness.
func (s *Store) UpdateAccountSyncStatus(ctx context.Context, accountIDs []int64, status models.SyncStatus, errMsg *string, at *time.Time) error {
	query := `UPDATE accounts SET sync_status = ?, last_sync_at = COALESCE(?, last_sync_at), last_sync_error = ? WHERE id = ?`

	for _, id := range accountIDs {
		if _, err := s.q.ExecContext(ctx, query, status, at, errMsg, id); err != nil {
			return fmt.Errorf("failed to update sync status for account %d: %w", id, err)
		}
	}
	return nil
}

const accountColumns = `
	id, user_id, name, type, subtype, mask, currency,
	balance, available_balance, credit_limit, available_credit,
	sync_status, last_sync_at, last_sync_error`

// GetAccount retrieves an account by id, nil if absent.
func (s *Store) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE id = ? LIMIT 1`

	var a models.Account
	err := s.q.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.UserID, &a.Name, &a.Type, &a.Subtype, &a.Mask, &a.Currency,
		&a.Balance, &a.AvailableBalance, &a.CreditLimit, &a.AvailableCredit,
		&a.SyncStatus, &a.LastSyncAt, &a.LastSyncError,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

// ListAccountsForUser retrieves all of a user's accounts.
func (s *Store) ListAccountsForUser(ctx context.Context, userID int64) ([]*models.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts WHERE user_id = ? ORDER BY id`

	rows, err := s.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var a models.Account
		err := rows.Scan(
			&a.ID, &a.UserID, &a.Name, &a.Type, &a.Subtype, &a.Mask, &a.Currency,
			&a.Balance, &a.AvailableBalance, &a.CreditLimit, &a.AvailableCredit,
			&a.SyncStatus, &a.LastSyncAt, &a.LastSyncError,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}
