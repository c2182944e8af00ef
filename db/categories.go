package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vpnda/ledgerlink/pkg/models"
)

// UpsertCategory resolves the id of the category for (user, name_key,
// kind), creating it when absent. The insert relies on the UNIQUE
// constraint so two racing resolutions cannot both create a row; the
// loser's insert is a no-op and the follow-up select returns the winner.
func (s *Store) UpsertCategory(ctx context.Context, c *models.Category) (int64, error) {
	query := `
	INSERT INTO categories (user_id, name, name_key, kind)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id, name_key, kind) DO NOTHING
	`

	if _, err := s.q.ExecContext(ctx, query, c.UserID, c.Name, c.NameKey, c.Kind); err != nil {
		return 0, fmt.Errorf("failed to upsert category: %w", err)
	}

	var id int64
	query = `SELECT id FROM categories WHERE user_id = ? AND name_key = ? AND kind = ? LIMIT 1`
	err := s.q.QueryRowContext(ctx, query, c.UserID, c.NameKey, c.Kind).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get category: %w", err)
	}
	return id, nil
}

// GetCategory retrieves a category by id, nil if absent.
func (s *Store) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	query := `SELECT id, user_id, name, name_key, kind FROM categories WHERE id = ? LIMIT 1`

	var c models.Category
	err := s.q.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.UserID, &c.Name, &c.NameKey, &c.Kind)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// CountCategories returns how many categories a user has, used by
// invariant checks and tests.
func (s *Store) CountCategories(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return n, nil
}
