package services

import (
	"context"
	"time"

	"github.com/vpnda/ledgerlink/pkg/models"
)

// SyncOutcome is the terminal result of a sync job, as surfaced on the
// affected accounts. The alerting engine reads nothing else: it polls
// sync_status and last_sync_at to raise missed-sync alerts.
type SyncOutcome struct {
	OK    bool
	Error string
}

// reportOutcome finalizes the health fields on the given accounts. On
// success the prior error is cleared; on failure the error string is
// recorded and last_sync_at keeps its old value so staleness stays
// visible.
func (e *Engine) reportOutcome(ctx context.Context, accountIDs []int64, outcome SyncOutcome) {
	if len(accountIDs) == 0 {
		return
	}

	var err error
	if outcome.OK {
		now := time.Now().UTC()
		err = e.store.UpdateAccountSyncStatus(ctx, accountIDs, models.SyncStatusOK, nil, &now)
	} else {
		msg := outcome.Error
		err = e.store.UpdateAccountSyncStatus(ctx, accountIDs, models.SyncStatusError, &msg, nil)
	}

	if err != nil {
		e.logger.Error().Err(err).Ints64("accounts", accountIDs).Msg("failed to report sync outcome")
	}
}
