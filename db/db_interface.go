package db

import (
	"context"
	"time"

	"github.com/vpnda/ledgerlink/pkg/models"
)

// Querier defines every ledger query the sync engine performs. It is
// implemented by both the connection-scoped and transaction-scoped store
// so the same code runs inside and outside an atomic page apply.
type Querier interface {
	CreateConnection(ctx context.Context, conn *models.Connection) (int64, error)
	GetConnection(ctx context.Context, id int64) (*models.Connection, error)
	GetConnectionByItemID(ctx context.Context, itemID string) (*models.Connection, error)
	ListConnectionsForUser(ctx context.Context, userID int64) ([]*models.Connection, error)
	UpdateConnectionStatus(ctx context.Context, id int64, status models.ConnectionStatus) error
	SaveCursor(ctx context.Context, id int64, cursor string, syncedAt time.Time) error
	ClearCursor(ctx context.Context, id int64) error

	GetAccountLink(ctx context.Context, connectionID int64, providerAccountID string) (*models.AccountLink, error)
	ListAccountLinks(ctx context.Context, connectionID int64) ([]*models.AccountLink, error)
	CreateLinkedAccount(ctx context.Context, account *models.Account, link *models.AccountLink) (int64, error)
	UpdateLinkedAccount(ctx context.Context, link *models.AccountLink) error
	UpdateAccountBalances(ctx context.Context, accountID int64, balance int64, available, limit, availableCredit *int64) error
	UpdateAccountSyncStatus(ctx context.Context, accountIDs []int64, status models.SyncStatus, errMsg *string, at *time.Time) error
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	ListAccountsForUser(ctx context.Context, userID int64) ([]*models.Account, error)

	UpsertCategory(ctx context.Context, c *models.Category) (int64, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	CountCategories(ctx context.Context, userID int64) (int, error)

	InsertTransaction(ctx context.Context, t *models.Transaction) (int64, error)
	UpdateTransactionSyncFields(ctx context.Context, id int64, amount int64, date, description string, pending bool, categoryID *int64) error
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	FindTransactionByExternalID(ctx context.Context, accountID int64, externalID string) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	ListTransactionsForAccount(ctx context.Context, accountID int64) ([]*models.Transaction, error)

	InsertMapping(ctx context.Context, m *models.TransactionMapping) error
	GetMapping(ctx context.Context, userID int64, providerTransactionID string) (*models.TransactionMapping, error)
	DeleteMapping(ctx context.Context, userID int64, providerTransactionID string) error
}

// LedgerStore is the full store surface: queries plus atomicity.
type LedgerStore interface {
	Querier
	Transact(ctx context.Context, fn func(Querier) error) error
	Initialize() error
	Close() error
}

// Ensure DB implements LedgerStore
var _ LedgerStore = (*DB)(nil)

// Ensure MockStore implements LedgerStore
var _ LedgerStore = (*MockStore)(nil)
