package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vpnda/ledgerlink/db"
	"github.com/vpnda/ledgerlink/pkg/models"
)

type syncState int

const (
	stateIdle syncState = iota
	stateFetching
	stateApplying
	stateCheckpointed
	stateFailed
)

func (s syncState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateFetching:
		return "fetching"
	case stateApplying:
		return "applying"
	case stateCheckpointed:
		return "checkpointed"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// syncJob is one run of the incremental sync driver for one connection.
// Lookup caches are created fresh per job so nothing stale carries over
// between runs.
type syncJob struct {
	id         uuid.UUID
	engine     *Engine
	conn       *models.Connection
	linker     *accountLinker
	categories *categoryResolver
	state      syncState
	log        zerolog.Logger
}

func newSyncJob(e *Engine, conn *models.Connection) *syncJob {
	id := uuid.New()
	return &syncJob{
		id:         id,
		engine:     e,
		conn:       conn,
		linker:     newAccountLinker(),
		categories: newCategoryResolver(),
		state:      stateIdle,
		log: e.logger.With().
			Stringer("job", id).
			Int64("connection", conn.ID).
			Logger(),
	}
}

// run executes the cursor paging loop. Each iteration fetches one diff
// page, applies it and checkpoints the advanced cursor in a single
// storage transaction, then continues while the provider reports more
// pages. A failure at any point leaves the cursor at its last
// checkpoint, so the next trigger resumes from the same page;
// re-applying a page is idempotent by construction.
func (j *syncJob) run(ctx context.Context) error {
	if err := j.linkAccounts(ctx); err != nil {
		j.state = stateFailed
		return err
	}

	cursor := ""
	if j.conn.SyncCursor != nil {
		cursor = *j.conn.SyncCursor
	}

	for {
		j.state = stateFetching
		pageCtx, cancel := context.WithTimeout(ctx, j.engine.pageTimeout)
		page, err := j.engine.client.SyncTransactions(pageCtx, j.conn.AccessToken, cursor)
		cancel()
		if err != nil {
			j.state = stateFailed
			return fmt.Errorf("failed to fetch diff page: %w", err)
		}

		j.state = stateApplying
		var result *pageResult
		err = j.engine.store.Transact(ctx, func(q db.Querier) error {
			var applyErr error
			result, applyErr = j.applyPage(ctx, q, page)
			if applyErr != nil {
				return applyErr
			}
			return q.SaveCursor(ctx, j.conn.ID, page.NextCursor, time.Now().UTC())
		})
		if err != nil {
			j.state = stateFailed
			return fmt.Errorf("failed to apply diff page: %w", err)
		}

		j.state = stateCheckpointed
		cursor = page.NextCursor
		j.observePage(result)
		j.log.Debug().
			Int("added", result.Added).
			Int("modified", result.Modified).
			Int("removed", result.Removed).
			Int("deferred", result.Deferred).
			Bool("has_more", page.HasMore).
			Msg("page checkpointed")

		if !page.HasMore {
			break
		}
	}

	j.state = stateIdle
	return nil
}

// linkAccounts resolves every account the provider currently reports
// before the paging loop, so first-sync diff entries land on freshly
// created accounts instead of being deferred wholesale.
func (j *syncJob) linkAccounts(ctx context.Context) error {
	snapCtx, cancel := context.WithTimeout(ctx, j.engine.pageTimeout)
	defer cancel()

	snapshots, err := j.engine.client.GetBalances(snapCtx, j.conn.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to fetch account snapshot: %w", err)
	}

	for _, snapshot := range snapshots {
		if _, err := j.linker.ResolveAccount(ctx, j.engine.store, j.conn, snapshot); err != nil {
			return err
		}
	}
	return nil
}

func (j *syncJob) observePage(result *pageResult) {
	syncPagesTotal.Inc()
	syncEntriesTotal.WithLabelValues("added").Add(float64(result.Added))
	syncEntriesTotal.WithLabelValues("modified").Add(float64(result.Modified))
	syncEntriesTotal.WithLabelValues("removed").Add(float64(result.Removed))
	syncEntriesTotal.WithLabelValues("deferred").Add(float64(result.Deferred))
	syncEntriesTotal.WithLabelValues("repaired").Add(float64(result.Repaired))
}
