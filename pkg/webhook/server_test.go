package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpnda/ledgerlink/db"
	"github.com/vpnda/ledgerlink/pkg/models"
	"github.com/vpnda/ledgerlink/pkg/provider"
	"github.com/vpnda/ledgerlink/pkg/services"
)

func newTestServer(t *testing.T) (*Server, *db.MockStore, *provider.MockClient, int64) {
	t.Helper()

	store := db.NewMockStore()
	client := provider.NewMockClient()
	client.Accounts = []provider.AccountSnapshot{{
		ID:       "a1",
		Name:     "Checking",
		Type:     "depository",
		Balances: provider.Balances{Current: 50000, Currency: "USD"},
	}}

	connID, err := store.CreateConnection(context.Background(), &models.Connection{
		UserID:         1,
		AccessToken:    "access-token",
		ProviderItemID: "item-1",
	})
	require.NoError(t, err)

	return NewServer(services.NewEngine(store, client), store), store, client, connID
}

func postWebhook(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestWebhookTriggersSync(t *testing.T) {
	s, store, client, connID := newTestServer(t)

	client.Pages[""] = &provider.SyncResponse{
		Added: []provider.TransactionEntry{
			{ID: "t1", AccountID: "a1", Amount: 1200, Date: "2024-01-05", Name: "Coffee"},
		},
		NextCursor: "c1",
	}

	rec := postWebhook(t, s, `{"webhook_type":"TRANSACTIONS","webhook_code":"SYNC_UPDATES_AVAILABLE","item_id":"item-1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The sync runs asynchronously after the 200.
	require.Eventually(t, func() bool {
		conn, err := store.GetConnection(context.Background(), connID)
		return err == nil && conn.SyncCursor != nil && *conn.SyncCursor == "c1"
	}, 2*time.Second, 10*time.Millisecond)

	link, err := store.GetAccountLink(context.Background(), connID, "a1")
	require.NoError(t, err)
	require.NotNil(t, link)
	txs, err := store.ListTransactionsForAccount(context.Background(), link.AccountID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestWebhookUnknownItemAcknowledged(t *testing.T) {
	s, _, client, _ := newTestServer(t)

	rec := postWebhook(t, s, `{"webhook_type":"TRANSACTIONS","webhook_code":"DEFAULT_UPDATE","item_id":"nobody"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, client.SyncCalls, "unknown item must not start a sync")
}

func TestWebhookIgnoresOtherTypes(t *testing.T) {
	s, _, client, _ := newTestServer(t)

	for _, body := range []string{
		`{"webhook_type":"ITEM","webhook_code":"ERROR","item_id":"item-1"}`,
		`{"webhook_type":"TRANSACTIONS","webhook_code":"RECURRING_TRANSACTIONS_UPDATE","item_id":"item-1"}`,
	} {
		rec := postWebhook(t, s, body)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, client.SyncCalls)
}

func TestWebhookRejectsBadPayload(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	rec := postWebhook(t, s, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
