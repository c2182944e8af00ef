package services

import (
	"context"
	"fmt"

	"github.com/vpnda/ledgerlink/pkg/models"
	"github.com/vpnda/ledgerlink/pkg/provider"
)

// reconcileBalances re-reads the provider's current balance snapshot for
// every linked account and writes the derived fields. It reflects the
// provider's present state rather than any diff cursor, so re-running it
// is always safe. Returns the internal ids of every account it touched.
func (e *Engine) reconcileBalances(ctx context.Context, conn *models.Connection, linker *accountLinker) ([]int64, error) {
	snapCtx, cancel := context.WithTimeout(ctx, e.pageTimeout)
	defer cancel()

	snapshots, err := e.client.GetBalances(snapCtx, conn.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balances: %w", err)
	}

	var accountIDs []int64
	for _, snapshot := range snapshots {
		accountID, err := linker.ResolveAccount(ctx, e.store, conn, snapshot)
		if err != nil {
			return nil, err
		}

		availableCredit := creditAvailable(snapshot)
		err = e.store.UpdateAccountBalances(ctx, accountID,
			snapshot.Balances.Current,
			snapshot.Balances.Available,
			limitFor(snapshot),
			availableCredit)
		if err != nil {
			return nil, err
		}

		accountIDs = append(accountIDs, accountID)
	}
	return accountIDs, nil
}

// creditAvailable computes available_credit = credit_limit - abs(balance)
// for credit accounts with a known limit. Non-credit accounts never
// populate credit fields.
func creditAvailable(snapshot provider.AccountSnapshot) *int64 {
	if snapshot.Type != models.AccountTypeCredit || snapshot.Balances.Limit == nil {
		return nil
	}

	balance := snapshot.Balances.Current
	if balance < 0 {
		balance = -balance
	}
	available := *snapshot.Balances.Limit - balance
	return &available
}

func limitFor(snapshot provider.AccountSnapshot) *int64 {
	if snapshot.Type != models.AccountTypeCredit {
		return nil
	}
	return snapshot.Balances.Limit
}
