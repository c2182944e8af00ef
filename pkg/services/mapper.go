package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/vpnda/ledgerlink/db"
	"github.com/vpnda/ledgerlink/pkg/models"
	"github.com/vpnda/ledgerlink/pkg/provider"
)

// pageResult summarizes what one diff page did to the ledger.
type pageResult struct {
	Added    int
	Modified int
	Removed  int
	// Deferred counts entries skipped because their provider account has
	// no internal link yet.
	Deferred int
	// Repaired counts orphaned transactions whose mapping row was
	// re-derived instead of inserting a duplicate.
	Repaired int
}

// applyPage applies one diff page to the ledger. It always runs inside
// a single storage transaction together with the cursor checkpoint.
// Order is added, modified, removed, so an entry both modified and
// removed in the same page ends in the removed state, matching the
// provider's latest intent.
func (j *syncJob) applyPage(ctx context.Context, q db.Querier, page *provider.SyncResponse) (*pageResult, error) {
	result := &pageResult{}

	for _, entry := range page.Added {
		applied, err := j.upsertEntry(ctx, q, entry, result)
		if err != nil {
			return nil, err
		}
		if applied {
			result.Added++
		}
	}

	for _, entry := range page.Modified {
		applied, err := j.upsertEntry(ctx, q, entry, result)
		if err != nil {
			return nil, err
		}
		if applied {
			result.Modified++
		}
	}

	for _, removed := range page.Removed {
		deleted, err := j.removeEntry(ctx, q, removed.ID)
		if err != nil {
			return nil, err
		}
		if deleted {
			result.Removed++
		}
	}

	return result, nil
}

// upsertEntry applies one added or modified entry. Added and modified
// are treated identically: whatever state the ledger is in, it converges
// on the provider's latest version of the transaction.
func (j *syncJob) upsertEntry(ctx context.Context, q db.Querier, entry provider.TransactionEntry, result *pageResult) (bool, error) {
	accountID, linked, err := j.linker.Lookup(ctx, q, j.conn.ID, entry.AccountID)
	if err != nil {
		return false, err
	}
	if !linked {
		// No internal account to attach to; creating the transaction now
		// would orphan it. Skip and let a later run pick it up once the
		// account is linked.
		j.log.Warn().
			Str("provider_transaction", entry.ID).
			Str("provider_account", entry.AccountID).
			Msg("provider account not linked, deferring entry")
		result.Deferred++
		return false, nil
	}

	// A posted transaction reissued under a new id supersedes its pending
	// precursor; drop the precursor as if the provider had removed it.
	if entry.PendingTransactionID != "" && entry.PendingTransactionID != entry.ID {
		if _, err := j.removeEntry(ctx, q, entry.PendingTransactionID); err != nil {
			return false, err
		}
	}

	// The amount sign only decides the kind for a category that does not
	// exist yet; an existing category's kind is authoritative.
	categoryID, err := j.categories.ResolveCategory(ctx, q, j.conn.UserID, entry.Category, models.KindForAmount(entry.Amount))
	if err != nil {
		return false, err
	}

	mapping, err := q.GetMapping(ctx, j.conn.UserID, entry.ID)
	if err != nil {
		return false, err
	}

	if mapping != nil {
		return true, q.UpdateTransactionSyncFields(ctx, mapping.TransactionID,
			entry.Amount, entry.Date, entry.Name, entry.Pending, categoryID)
	}

	// Unmapped: before inserting, check for a transaction row left behind
	// by a run that crashed between the transaction insert and the
	// mapping insert, and re-derive the mapping from it.
	orphan, err := q.FindTransactionByExternalID(ctx, accountID, entry.ID)
	if err != nil {
		return false, err
	}
	if orphan != nil {
		err := q.InsertMapping(ctx, &models.TransactionMapping{
			UserID:                j.conn.UserID,
			ProviderTransactionID: entry.ID,
			ProviderAccountID:     entry.AccountID,
			TransactionID:         orphan.ID,
		})
		if err != nil && !errors.Is(err, db.ErrMappingExists) {
			return false, err
		}
		result.Repaired++
		return true, q.UpdateTransactionSyncFields(ctx, orphan.ID,
			entry.Amount, entry.Date, entry.Name, entry.Pending, categoryID)
	}

	currency := entry.Currency
	if currency == "" {
		currency = "USD"
	}

	transactionID, err := q.InsertTransaction(ctx, &models.Transaction{
		UserID:      j.conn.UserID,
		AccountID:   accountID,
		ExternalID:  entry.ID,
		Amount:      entry.Amount,
		Currency:    currency,
		Date:        entry.Date,
		Description: entry.Name,
		CategoryID:  categoryID,
		Pending:     entry.Pending,
	})
	if err != nil {
		return false, err
	}

	err = q.InsertMapping(ctx, &models.TransactionMapping{
		UserID:                j.conn.UserID,
		ProviderTransactionID: entry.ID,
		ProviderAccountID:     entry.AccountID,
		TransactionID:         transactionID,
	})
	if errors.Is(err, db.ErrMappingExists) {
		// A concurrent or previous run won the insert race. Discard our
		// copy and converge on the mapped transaction instead.
		if err := q.DeleteTransaction(ctx, transactionID); err != nil {
			return false, err
		}
		existing, err := q.GetMapping(ctx, j.conn.UserID, entry.ID)
		if err != nil {
			return false, err
		}
		if existing == nil {
			return false, fmt.Errorf("mapping for %s vanished after conflict", entry.ID)
		}
		return true, q.UpdateTransactionSyncFields(ctx, existing.TransactionID,
			entry.Amount, entry.Date, entry.Name, entry.Pending, categoryID)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// removeEntry deletes the transaction and mapping for a provider
// transaction id together. An unknown id is a no-op: the transaction is
// already absent, which is the state the provider asked for.
func (j *syncJob) removeEntry(ctx context.Context, q db.Querier, providerTransactionID string) (bool, error) {
	mapping, err := q.GetMapping(ctx, j.conn.UserID, providerTransactionID)
	if err != nil {
		return false, err
	}
	if mapping == nil {
		return false, nil
	}

	if err := q.DeleteTransaction(ctx, mapping.TransactionID); err != nil {
		return false, err
	}
	if err := q.DeleteMapping(ctx, j.conn.UserID, providerTransactionID); err != nil {
		return false, err
	}
	return true, nil
}
