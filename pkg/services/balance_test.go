package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpnda/ledgerlink/pkg/models"
	"github.com/vpnda/ledgerlink/pkg/provider"
)

func int64Ptr(v int64) *int64 { return &v }

func TestReconcileCreditAccount(t *testing.T) {
	engine, store, client, connID := newTestEngine(t)
	ctx := context.Background()

	client.Accounts = []provider.AccountSnapshot{{
		ID:      "cc1",
		Name:    "Rewards Card",
		Type:    "credit",
		Subtype: "credit card",
		Balances: provider.Balances{
			Current:  -75000,
			Limit:    int64Ptr(500000),
			Currency: "USD",
		},
	}}

	require.NoError(t, engine.SyncConnection(ctx, connID))

	accountID := linkedAccountID(t, store, connID, "cc1")
	account, err := store.GetAccount(ctx, accountID)
	require.NoError(t, err)

	assert.Equal(t, int64(-75000), account.Balance)
	require.NotNil(t, account.CreditLimit)
	assert.Equal(t, int64(500000), *account.CreditLimit)
	require.NotNil(t, account.AvailableCredit)
	assert.Equal(t, int64(425000), *account.AvailableCredit,
		"available credit is the limit minus the magnitude of the balance")
}

func TestReconcileDepositoryHasNoCreditFields(t *testing.T) {
	engine, store, client, connID := newTestEngine(t)
	ctx := context.Background()

	snapshot := checkingSnapshot(50000)
	snapshot.Balances.Available = int64Ptr(48000)
	// A limit reported for a non-credit account is ignored.
	snapshot.Balances.Limit = int64Ptr(100000)
	client.Accounts = []provider.AccountSnapshot{snapshot}

	require.NoError(t, engine.SyncConnection(ctx, connID))

	accountID := linkedAccountID(t, store, connID, "a1")
	account, err := store.GetAccount(ctx, accountID)
	require.NoError(t, err)

	assert.Equal(t, int64(50000), account.Balance)
	require.NotNil(t, account.AvailableBalance)
	assert.Equal(t, int64(48000), *account.AvailableBalance)
	assert.Nil(t, account.CreditLimit)
	assert.Nil(t, account.AvailableCredit)
}

// Account creation happens before the first page fetch, so a run that
// dies mid-sync persists whatever the linker wrote. Creation must apply
// the same credit-field rules as reconciliation.
func TestLinkedDepositoryCreationIgnoresLimit(t *testing.T) {
	engine, store, client, connID := newTestEngine(t)
	ctx := context.Background()

	snapshot := checkingSnapshot(50000)
	snapshot.Balances.Limit = int64Ptr(100000)
	client.Accounts = []provider.AccountSnapshot{snapshot}
	client.SyncErr = &provider.APIError{Type: "API_ERROR", Code: "INTERNAL_SERVER_ERROR"}

	// Accounts link, then the page fetch fails before any reconciliation.
	require.NoError(t, engine.SyncConnection(ctx, connID))

	accountID := linkedAccountID(t, store, connID, "a1")
	account, err := store.GetAccount(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, account.SyncStatus)
	assert.Nil(t, account.CreditLimit, "non-credit account must never persist a limit")
	assert.Nil(t, account.AvailableCredit)
}

func TestLinkedCreditCreationDerivesAvailable(t *testing.T) {
	engine, store, client, connID := newTestEngine(t)
	ctx := context.Background()

	client.Accounts = []provider.AccountSnapshot{{
		ID:   "cc1",
		Name: "Rewards Card",
		Type: "credit",
		Balances: provider.Balances{
			Current:  -75000,
			Limit:    int64Ptr(500000),
			Currency: "USD",
		},
	}}
	client.SyncErr = &provider.APIError{Type: "API_ERROR", Code: "INTERNAL_SERVER_ERROR"}

	require.NoError(t, engine.SyncConnection(ctx, connID))

	accountID := linkedAccountID(t, store, connID, "cc1")
	account, err := store.GetAccount(ctx, accountID)
	require.NoError(t, err)
	require.NotNil(t, account.CreditLimit)
	assert.Equal(t, int64(500000), *account.CreditLimit)
	require.NotNil(t, account.AvailableCredit, "available credit is derived at creation, not only at reconciliation")
	assert.Equal(t, int64(425000), *account.AvailableCredit)
}

func TestCreditWithoutLimit(t *testing.T) {
	snapshot := provider.AccountSnapshot{
		Type:     models.AccountTypeCredit,
		Balances: provider.Balances{Current: -20000},
	}
	assert.Nil(t, creditAvailable(snapshot), "no limit means no derived available credit")
}

func TestReconcileRerunIsStable(t *testing.T) {
	engine, store, _, connID := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.SyncConnection(ctx, connID))
	require.NoError(t, engine.SyncConnection(ctx, connID))

	accountID := linkedAccountID(t, store, connID, "a1")
	account, err := store.GetAccount(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), account.Balance)

	links, err := store.ListAccountLinks(ctx, connID)
	require.NoError(t, err)
	assert.Len(t, links, 1, "re-linking the same provider account must not create another")
}
