package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/vpnda/ledgerlink/db"
	"github.com/vpnda/ledgerlink/pkg/models"
	"github.com/vpnda/ledgerlink/pkg/provider"
)

// accountLinker maps provider account ids to internal accounts. The
// cache is scoped to one sync job and starts empty, so a stale entry can
// never outlive the job that populated it. Resolution is serialized per
// provider account id: two concurrent resolutions of the same id cannot
// both create an account, while distinct ids proceed in parallel.
type accountLinker struct {
	mu    sync.Mutex
	cache map[string]int64
	locks map[string]*sync.Mutex
}

func newAccountLinker() *accountLinker {
	return &accountLinker{
		cache: make(map[string]int64),
		locks: make(map[string]*sync.Mutex),
	}
}

func (al *accountLinker) lockFor(providerAccountID string) *sync.Mutex {
	al.mu.Lock()
	defer al.mu.Unlock()

	l, ok := al.locks[providerAccountID]
	if !ok {
		l = &sync.Mutex{}
		al.locks[providerAccountID] = l
	}
	return l
}

func (al *accountLinker) cached(providerAccountID string) (int64, bool) {
	al.mu.Lock()
	defer al.mu.Unlock()
	id, ok := al.cache[providerAccountID]
	return id, ok
}

func (al *accountLinker) remember(providerAccountID string, accountID int64) {
	al.mu.Lock()
	defer al.mu.Unlock()
	al.cache[providerAccountID] = accountID
}

// ResolveAccount returns the internal account id for a provider account,
// creating the account and its link on first sight with balances taken
// from the snapshot, and refreshing descriptive fields thereafter.
func (al *accountLinker) ResolveAccount(ctx context.Context, q db.Querier, conn *models.Connection, snapshot provider.AccountSnapshot) (int64, error) {
	l := al.lockFor(snapshot.ID)
	l.Lock()
	defer l.Unlock()

	link, err := q.GetAccountLink(ctx, conn.ID, snapshot.ID)
	if err != nil {
		return 0, err
	}

	if link != nil {
		link.Name = snapshot.Name
		link.Type = snapshot.Type
		link.Subtype = snapshot.Subtype
		link.Mask = snapshot.Mask
		if err := q.UpdateLinkedAccount(ctx, link); err != nil {
			return 0, err
		}
		al.remember(snapshot.ID, link.AccountID)
		return link.AccountID, nil
	}

	currency := snapshot.Balances.Currency
	if currency == "" {
		currency = "USD"
	}

	account := &models.Account{
		UserID:           conn.UserID,
		Name:             snapshot.Name,
		Type:             snapshot.Type,
		Subtype:          snapshot.Subtype,
		Mask:             snapshot.Mask,
		Currency:         currency,
		Balance:          snapshot.Balances.Current,
		AvailableBalance: snapshot.Balances.Available,
		// Credit fields follow the same rules as reconciliation: never set
		// on non-credit accounts, derived available credit otherwise.
		CreditLimit:     limitFor(snapshot),
		AvailableCredit: creditAvailable(snapshot),
	}

	accountID, err := q.CreateLinkedAccount(ctx, account, &models.AccountLink{
		ConnectionID:      conn.ID,
		ProviderAccountID: snapshot.ID,
		Name:              snapshot.Name,
		Type:              snapshot.Type,
		Subtype:           snapshot.Subtype,
		Mask:              snapshot.Mask,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to link provider account %s: %w", snapshot.ID, err)
	}

	al.remember(snapshot.ID, accountID)
	return accountID, nil
}

// Lookup resolves a provider account id without creating anything. The
// second return is false when the account has never been linked; diff
// entries for such accounts are deferred rather than inserted as
// orphans.
func (al *accountLinker) Lookup(ctx context.Context, q db.Querier, connectionID int64, providerAccountID string) (int64, bool, error) {
	if id, ok := al.cached(providerAccountID); ok {
		return id, true, nil
	}

	link, err := q.GetAccountLink(ctx, connectionID, providerAccountID)
	if err != nil {
		return 0, false, err
	}
	if link == nil {
		return 0, false, nil
	}

	al.remember(providerAccountID, link.AccountID)
	return link.AccountID, true, nil
}
