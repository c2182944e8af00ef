package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vpnda/ledgerlink/pkg/models"
)

// MockStore is an in-memory implementation of LedgerStore for testing.
// It is not transactional: Transact simply runs fn against the same
// maps, which is enough for the service tests that use it. Tests that
// exercise rollback behavior use a real sqlite store instead.
type MockStore struct {
	mu sync.Mutex

	Connections  map[int64]*models.Connection
	Accounts     map[int64]*models.Account
	Links        map[string]*models.AccountLink // keyed connectionID/providerAccountID
	Categories   map[string]*models.Category    // keyed userID/nameKey/kind
	Transactions map[int64]*models.Transaction
	Mappings     map[string]*models.TransactionMapping // keyed userID/providerTransactionID

	nextConnectionID  int64
	nextAccountID     int64
	nextCategoryID    int64
	nextTransactionID int64

	// Error values to return
	SaveCursorErr        error
	InsertMappingErr     error
	InsertTransactionErr error
	UpdateBalancesErr    error
	UpdateStatusErr      error
}

// NewMockStore creates a new mock store
func NewMockStore() *MockStore {
	return &MockStore{
		Connections:  make(map[int64]*models.Connection),
		Accounts:     make(map[int64]*models.Account),
		Links:        make(map[string]*models.AccountLink),
		Categories:   make(map[string]*models.Category),
		Transactions: make(map[int64]*models.Transaction),
		Mappings:     make(map[string]*models.TransactionMapping),
	}
}

func linkKey(connectionID int64, providerAccountID string) string {
	return fmt.Sprintf("%d/%s", connectionID, providerAccountID)
}

func categoryKey(userID int64, nameKey string, kind models.CategoryKind) string {
	return fmt.Sprintf("%d/%s/%s", userID, nameKey, kind)
}

func mappingKey(userID int64, providerTransactionID string) string {
	return fmt.Sprintf("%d/%s", userID, providerTransactionID)
}

func (m *MockStore) CreateConnection(ctx context.Context, conn *models.Connection) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextConnectionID++
	cp := *conn
	cp.ID = m.nextConnectionID
	if cp.Status == "" {
		cp.Status = models.ConnectionActive
	}
	m.Connections[cp.ID] = &cp
	return cp.ID, nil
}

func (m *MockStore) GetConnection(ctx context.Context, id int64) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.Connections[id]
	if !ok {
		return nil, nil
	}
	cp := *conn
	return &cp, nil
}

func (m *MockStore) GetConnectionByItemID(ctx context.Context, itemID string) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, conn := range m.Connections {
		if conn.ProviderItemID == itemID {
			cp := *conn
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockStore) ListConnectionsForUser(ctx context.Context, userID int64) ([]*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var conns []*models.Connection
	for _, conn := range m.Connections {
		if conn.UserID == userID {
			cp := *conn
			conns = append(conns, &cp)
		}
	}
	return conns, nil
}

func (m *MockStore) UpdateConnectionStatus(ctx context.Context, id int64, status models.ConnectionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.Connections[id]
	if !ok {
		return fmt.Errorf("no connection found with id: %d", id)
	}
	conn.Status = status
	return nil
}

func (m *MockStore) SaveCursor(ctx context.Context, id int64, cursor string, syncedAt time.Time) error {
	if m.SaveCursorErr != nil {
		return m.SaveCursorErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.Connections[id]
	if !ok {
		return fmt.Errorf("no connection found with id: %d", id)
	}
	conn.SyncCursor = &cursor
	conn.LastSyncedAt = &syncedAt
	return nil
}

func (m *MockStore) ClearCursor(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.Connections[id]
	if !ok {
		return fmt.Errorf("no connection found with id: %d", id)
	}
	conn.SyncCursor = nil
	return nil
}

func (m *MockStore) GetAccountLink(ctx context.Context, connectionID int64, providerAccountID string) (*models.AccountLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.Links[linkKey(connectionID, providerAccountID)]
	if !ok {
		return nil, nil
	}
	cp := *link
	return &cp, nil
}

func (m *MockStore) ListAccountLinks(ctx context.Context, connectionID int64) ([]*models.AccountLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var links []*models.AccountLink
	for _, link := range m.Links {
		if link.ConnectionID == connectionID {
			cp := *link
			links = append(links, &cp)
		}
	}
	return links, nil
}

func (m *MockStore) CreateLinkedAccount(ctx context.Context, account *models.Account, link *models.AccountLink) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := linkKey(link.ConnectionID, link.ProviderAccountID)
	if _, ok := m.Links[key]; ok {
		return 0, fmt.Errorf("account link already exists: %s", key)
	}

	m.nextAccountID++
	now := time.Now().UTC()
	cp := *account
	cp.ID = m.nextAccountID
	cp.SyncStatus = models.SyncStatusOK
	cp.LastSyncAt = &now
	m.Accounts[cp.ID] = &cp

	lcp := *link
	lcp.AccountID = cp.ID
	m.Links[key] = &lcp
	return cp.ID, nil
}

func (m *MockStore) UpdateLinkedAccount(ctx context.Context, link *models.AccountLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := linkKey(link.ConnectionID, link.ProviderAccountID)
	existing, ok := m.Links[key]
	if !ok {
		return fmt.Errorf("no account link found: %s", key)
	}
	existing.Name = link.Name
	existing.Type = link.Type
	existing.Subtype = link.Subtype
	existing.Mask = link.Mask

	if account, ok := m.Accounts[existing.AccountID]; ok {
		account.Name = link.Name
		account.Type = link.Type
		account.Subtype = link.Subtype
		account.Mask = link.Mask
	}
	return nil
}

func (m *MockStore) UpdateAccountBalances(ctx context.Context, accountID int64, balance int64, available, limit, availableCredit *int64) error {
	if m.UpdateBalancesErr != nil {
		return m.UpdateBalancesErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.Accounts[accountID]
	if !ok {
		return fmt.Errorf("no account found with id: %d", accountID)
	}
	account.Balance = balance
	account.AvailableBalance = available
	account.CreditLimit = limit
	account.AvailableCredit = availableCredit
	return nil
}

func (m *MockStore) UpdateAccountSyncStatus(ctx context.Context, accountIDs []int64, status models.SyncStatus, errMsg *string, at *time.Time) error {
	if m.UpdateStatusErr != nil {
		return m.UpdateStatusErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range accountIDs {
		account, ok := m.Accounts[id]
		if !ok {
			return fmt.Errorf("no account found with id: %d", id)
		}
		account.SyncStatus = status
		if at != nil {
			stamp := *at
			account.LastSyncAt = &stamp
		}
		account.LastSyncError = errMsg
	}
	return nil
}

func (m *MockStore) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.Accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *account
	return &cp, nil
}

func (m *MockStore) ListAccountsForUser(ctx context.Context, userID int64) ([]*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var accounts []*models.Account
	for _, account := range m.Accounts {
		if account.UserID == userID {
			cp := *account
			accounts = append(accounts, &cp)
		}
	}
	return accounts, nil
}

func (m *MockStore) UpsertCategory(ctx context.Context, c *models.Category) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := categoryKey(c.UserID, c.NameKey, c.Kind)
	if existing, ok := m.Categories[key]; ok {
		return existing.ID, nil
	}

	m.nextCategoryID++
	cp := *c
	cp.ID = m.nextCategoryID
	m.Categories[key] = &cp
	return cp.ID, nil
}

func (m *MockStore) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.Categories {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockStore) CountCategories(ctx context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.Categories {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MockStore) InsertTransaction(ctx context.Context, t *models.Transaction) (int64, error) {
	if m.InsertTransactionErr != nil {
		return 0, m.InsertTransactionErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextTransactionID++
	cp := *t
	cp.ID = m.nextTransactionID
	m.Transactions[cp.ID] = &cp
	return cp.ID, nil
}

func (m *MockStore) UpdateTransactionSyncFields(ctx context.Context, id int64, amount int64, date, description string, pending bool, categoryID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.Transactions[id]
	if !ok {
		return fmt.Errorf("no transaction found with id: %d", id)
	}
	t.Amount = amount
	t.Date = date
	t.Description = description
	t.Pending = pending
	if t.CategoryID == nil {
		t.CategoryID = categoryID
	}
	return nil
}

func (m *MockStore) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.Transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *MockStore) FindTransactionByExternalID(ctx context.Context, accountID int64, externalID string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if externalID == "" {
		return nil, nil
	}
	for _, t := range m.Transactions {
		if t.AccountID == accountID && t.ExternalID == externalID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockStore) DeleteTransaction(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Transactions, id)
	return nil
}

func (m *MockStore) ListTransactionsForAccount(ctx context.Context, accountID int64) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var txs []*models.Transaction
	for _, t := range m.Transactions {
		if t.AccountID == accountID {
			cp := *t
			txs = append(txs, &cp)
		}
	}
	return txs, nil
}

func (m *MockStore) InsertMapping(ctx context.Context, mapping *models.TransactionMapping) error {
	if m.InsertMappingErr != nil {
		return m.InsertMappingErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := mappingKey(mapping.UserID, mapping.ProviderTransactionID)
	if _, ok := m.Mappings[key]; ok {
		return ErrMappingExists
	}
	cp := *mapping
	m.Mappings[key] = &cp
	return nil
}

func (m *MockStore) GetMapping(ctx context.Context, userID int64, providerTransactionID string) (*models.TransactionMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mapping, ok := m.Mappings[mappingKey(userID, providerTransactionID)]
	if !ok {
		return nil, nil
	}
	cp := *mapping
	return &cp, nil
}

func (m *MockStore) DeleteMapping(ctx context.Context, userID int64, providerTransactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Mappings, mappingKey(userID, providerTransactionID))
	return nil
}

// Transact runs fn directly against the mock's state.
func (m *MockStore) Transact(ctx context.Context, fn func(Querier) error) error {
	return fn(m)
}

// Initialize is a no-op for the mock store.
func (m *MockStore) Initialize() error {
	return nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
