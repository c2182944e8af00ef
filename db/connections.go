package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vpnda/ledgerlink/pkg/models"
)

// CreateConnection inserts a new provider connection and returns its id.
func (s *Store) CreateConnection(ctx context.Context, conn *models.Connection) (int64, error) {
	query := `
	INSERT INTO connections (user_id, access_token, provider_item_id, institution_id, institution_name, status)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	status := conn.Status
	if status == "" {
		status = models.ConnectionActive
	}

	res, err := s.q.ExecContext(ctx, query,
		conn.UserID, conn.AccessToken, conn.ProviderItemID,
		conn.InstitutionID, conn.InstitutionName, status)
	if err != nil {
		return 0, fmt.Errorf("failed to create connection: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get connection id: %w", err)
	}
	return id, nil
}

const connectionColumns = `
	id, user_id, access_token, provider_item_id, institution_id,
	institution_name, status, sync_cursor, last_synced_at`

func scanConnection(row *sql.Row) (*models.Connection, error) {
	var conn models.Connection
	err := row.Scan(
		&conn.ID,
		&conn.UserID,
		&conn.AccessToken,
		&conn.ProviderItemID,
		&conn.InstitutionID,
		&conn.InstitutionName,
		&conn.Status,
		&conn.SyncCursor,
		&conn.LastSyncedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return &conn, nil
}

// GetConnection retrieves a connection by id, nil if absent.
func (s *Store) GetConnection(ctx context.Context, id int64) (*models.Connection, error) {
	query := `SELECT` + connectionColumns + ` FROM connections WHERE id = ? LIMIT 1`
	return scanConnection(s.q.QueryRowContext(ctx, query, id))
}

// GetConnectionByItemID retrieves a connection by its provider item id,
// nil if the item is unknown.
func (s *Store) GetConnectionByItemID(ctx context.Context, itemID string) (*models.Connection, error) {
	query := `SELECT` + connectionColumns + ` FROM connections WHERE provider_item_id = ? LIMIT 1`
	return scanConnection(s.q.QueryRowContext(ctx, query, itemID))
}

// ListConnectionsForUser retrieves all of a user's connections.
func (s *Store) ListConnectionsForUser(ctx context.Context, userID int64) ([]*models.Connection, error) {
	query := `SELECT` + connectionColumns + ` FROM connections WHERE user_id = ? ORDER BY id`

	rows, err := s.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer rows.Close()

	var conns []*models.Connection
	for rows.Next() {
		var conn models.Connection
		err := rows.Scan(
			&conn.ID,
			&conn.UserID,
			&conn.AccessToken,
			&conn.ProviderItemID,
			&conn.InstitutionID,
			&conn.InstitutionName,
			&conn.Status,
			&conn.SyncCursor,
			&conn.LastSyncedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, &conn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}
	return conns, nil
}

// UpdateConnectionStatus flips the connection's health status.
func (s *Store) UpdateConnectionStatus(ctx context.Context, id int64, status models.ConnectionStatus) error {
	_, err := s.q.ExecContext(ctx, `UPDATE connections SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update connection status: %w", err)
	}
	return nil
}

// SaveCursor checkpoints the sync cursor for a connection. It is only
// called inside the same transaction that applied the page the cursor
// refers to.
func (s *Store) SaveCursor(ctx context.Context, id int64, cursor string, syncedAt time.Time) error {
	query := `UPDATE connections SET sync_cursor = ?, last_synced_at = ? WHERE id = ?`

	res, err := s.q.ExecContext(ctx, query, cursor, syncedAt, id)
	if err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no connection found with id: %d", id)
	}
	return nil
}

// ClearCursor resets the cursor so the next run is a full re-sync.
func (s *Store) ClearCursor(ctx context.Context, id int64) error {
	_, err := s.q.ExecContext(ctx, `UPDATE connections SET sync_cursor = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to clear cursor: %w", err)
	}
	return nil
}
