package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/vpnda/ledgerlink/pkg/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	tempFile, err := os.CreateTemp("", "test-db-*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tempFile.Close()
	t.Cleanup(func() { os.Remove(tempFile.Name()) })

	database, err := New(tempFile.Name())
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	return database
}

// seedAccount inserts an account row with a fixed id so tests can insert
// transactions that satisfy the account_id foreign key.
func seedAccount(t *testing.T, database *DB, accountID, userID int64) {
	t.Helper()

	if _, err := database.Exec(
		"INSERT INTO accounts (id, user_id, name) VALUES (?, ?, ?)",
		accountID, userID, "seed account"); err != nil {
		t.Fatalf("Failed to seed account %d: %v", accountID, err)
	}
}

// seedTransaction inserts a transaction row with a fixed id so tests can
// insert mappings that satisfy the transaction_id foreign key.
func seedTransaction(t *testing.T, database *DB, txID, accountID, userID int64) {
	t.Helper()

	if _, err := database.Exec(
		"INSERT INTO transactions (id, user_id, account_id, amount, date) VALUES (?, ?, ?, 0, '2024-01-01')",
		txID, userID, accountID); err != nil {
		t.Fatalf("Failed to seed transaction %d: %v", txID, err)
	}
}

func TestInitialize(t *testing.T) {
	database := newTestDB(t)

	for _, table := range []string{
		"connections", "accounts", "account_links",
		"categories", "transactions", "transaction_mappings",
	} {
		var name string
		err := database.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("Failed to query for %s table: %v", table, err)
		}
		if name != table {
			t.Fatalf("Expected table name '%s', got '%s'", table, name)
		}
	}
}

func TestConnectionLifecycle(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	id, err := database.CreateConnection(ctx, &models.Connection{
		UserID:          7,
		AccessToken:     "access-token-1",
		ProviderItemID:  "item-abc",
		InstitutionName: "First Bank",
	})
	if err != nil {
		t.Fatalf("Failed to create connection: %v", err)
	}

	conn, err := database.GetConnection(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get connection: %v", err)
	}
	if conn == nil {
		t.Fatal("Expected connection, got nil")
	}
	if conn.Status != models.ConnectionActive {
		t.Errorf("Expected status active, got %s", conn.Status)
	}
	if conn.SyncCursor != nil {
		t.Errorf("Expected nil cursor on a fresh connection, got %q", *conn.SyncCursor)
	}

	byItem, err := database.GetConnectionByItemID(ctx, "item-abc")
	if err != nil {
		t.Fatalf("Failed to get connection by item id: %v", err)
	}
	if byItem == nil || byItem.ID != id {
		t.Fatalf("Expected connection %d by item id, got %+v", id, byItem)
	}

	unknown, err := database.GetConnectionByItemID(ctx, "item-nope")
	if err != nil {
		t.Fatalf("Unexpected error for unknown item: %v", err)
	}
	if unknown != nil {
		t.Errorf("Expected nil for unknown item, got %+v", unknown)
	}
}

func TestSaveAndClearCursor(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	id, err := database.CreateConnection(ctx, &models.Connection{
		UserID:         1,
		AccessToken:    "tok",
		ProviderItemID: "item-cursor",
	})
	if err != nil {
		t.Fatalf("Failed to create connection: %v", err)
	}

	syncedAt := time.Now().UTC()
	if err := database.SaveCursor(ctx, id, "cursor-1", syncedAt); err != nil {
		t.Fatalf("Failed to save cursor: %v", err)
	}

	conn, err := database.GetConnection(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get connection: %v", err)
	}
	if conn.SyncCursor == nil || *conn.SyncCursor != "cursor-1" {
		t.Fatalf("Expected cursor 'cursor-1', got %v", conn.SyncCursor)
	}
	if conn.LastSyncedAt == nil {
		t.Fatal("Expected last_synced_at to be stamped")
	}

	if err := database.ClearCursor(ctx, id); err != nil {
		t.Fatalf("Failed to clear cursor: %v", err)
	}

	conn, err = database.GetConnection(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get connection: %v", err)
	}
	if conn.SyncCursor != nil {
		t.Errorf("Expected nil cursor after clear, got %q", *conn.SyncCursor)
	}

	if err := database.SaveCursor(ctx, 999, "c", syncedAt); err == nil {
		t.Error("Expected error saving cursor for missing connection")
	}
}

func TestTransactRollsBackOnError(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, database, 1, 1)

	err := database.Transact(ctx, func(q Querier) error {
		_, err := q.InsertTransaction(ctx, &models.Transaction{
			UserID:      1,
			AccountID:   1,
			ExternalID:  "ext-1",
			Amount:      1200,
			Date:        "2024-01-05",
			Description: "Coffee",
		})
		if err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	if err == nil {
		t.Fatal("Expected error from Transact")
	}

	var count int
	if err := database.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		t.Fatalf("Failed to count transactions: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected rollback to leave 0 transactions, got %d", count)
	}
}

func TestTransactCommits(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	seedAccount(t, database, 1, 1)

	var id int64
	err := database.Transact(ctx, func(q Querier) error {
		var err error
		id, err = q.InsertTransaction(ctx, &models.Transaction{
			UserID:      1,
			AccountID:   1,
			ExternalID:  "ext-2",
			Amount:      -4500,
			Date:        "2024-02-01",
			Description: "Paycheck",
		})
		return err
	})
	if err != nil {
		t.Fatalf("Transact failed: %v", err)
	}

	tx, err := database.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get transaction: %v", err)
	}
	if tx == nil {
		t.Fatal("Expected committed transaction, got nil")
	}
	if tx.Amount != -4500 {
		t.Errorf("Expected amount -4500, got %d", tx.Amount)
	}
}
