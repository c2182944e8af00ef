package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/vpnda/ledgerlink/db"
	"github.com/vpnda/ledgerlink/pkg/models"
	"github.com/vpnda/ledgerlink/pkg/provider"
)

var (
	// ErrConnectionNotFound is the only trigger failure surfaced to the
	// caller; everything downstream is recovered locally.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrSyncAlreadyRunning is returned when a trigger arrives while a
	// sync for the same connection holds the lease.
	ErrSyncAlreadyRunning = errors.New("sync already running for connection")
)

const defaultPageTimeout = 30 * time.Second

// Engine drives provider-feed synchronization into the ledger store.
type Engine struct {
	store       db.LedgerStore
	client      provider.Client
	leases      *leaseRegistry
	pageTimeout time.Duration
	logger      zerolog.Logger
}

type Option func(*Engine)

// WithPageTimeout bounds each provider call made by a sync job.
func WithPageTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.pageTimeout = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func NewEngine(store db.LedgerStore, client provider.Client, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		client:      client,
		leases:      newLeaseRegistry(),
		pageTimeout: defaultPageTimeout,
		logger:      log.With().Str("component", "sync").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SyncUser fans a manual "sync now" out to every connection the user
// has. Connections fail independently; a failure is recorded on the
// affected accounts and the remaining connections still run.
func (e *Engine) SyncUser(ctx context.Context, userID int64) error {
	conns, err := e.store.ListConnectionsForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list connections for user %d: %w", userID, err)
	}

	for _, conn := range conns {
		if err := e.SyncConnection(ctx, conn.ID); err != nil {
			if errors.Is(err, ErrSyncAlreadyRunning) {
				e.logger.Info().Int64("connection", conn.ID).Msg("sync already in progress, skipping")
				continue
			}
			return err
		}
	}
	return nil
}

// SyncConnection runs one full sync job for a connection: the cursor
// paging loop, then balance reconciliation, then status finalization.
// Provider and storage failures are recorded on the connection's
// accounts and not returned; only a missing connection or a held lease
// is a caller-visible error.
func (e *Engine) SyncConnection(ctx context.Context, connectionID int64) error {
	conn, err := e.store.GetConnection(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("failed to load connection %d: %w", connectionID, err)
	}
	if conn == nil {
		return fmt.Errorf("%w: %d", ErrConnectionNotFound, connectionID)
	}

	release, err := e.leases.acquire(conn.ID)
	if err != nil {
		return err
	}
	defer release()

	job := newSyncJob(e, conn)
	if err := job.run(ctx); err != nil {
		e.recordFailure(ctx, job, err)
		return nil
	}

	accountIDs, err := e.reconcileBalances(ctx, conn, job.linker)
	if err != nil {
		e.recordFailure(ctx, job, err)
		return nil
	}

	e.reportOutcome(ctx, accountIDs, SyncOutcome{OK: true})
	job.log.Info().Int("accounts", len(accountIDs)).Msg("sync completed")
	return nil
}

// FullResync discards the persisted cursor and replays the provider feed
// from the start. Replay is idempotent, so existing ledger rows are
// updated in place rather than duplicated.
func (e *Engine) FullResync(ctx context.Context, connectionID int64) error {
	conn, err := e.store.GetConnection(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("failed to load connection %d: %w", connectionID, err)
	}
	if conn == nil {
		return fmt.Errorf("%w: %d", ErrConnectionNotFound, connectionID)
	}

	if err := e.store.ClearCursor(ctx, connectionID); err != nil {
		return err
	}
	return e.SyncConnection(ctx, connectionID)
}

// recordFailure applies the error taxonomy: auth errors flip the
// connection to error (re-auth required, no automatic retry), everything
// else leaves the connection active so the next trigger retries from the
// preserved checkpoint. Either way the accounts under this connection
// (and only this connection) surface the failure.
func (e *Engine) recordFailure(ctx context.Context, job *syncJob, cause error) {
	job.log.Error().Err(cause).Msg("sync failed")
	syncFailuresTotal.WithLabelValues(failureKind(cause)).Inc()

	if provider.IsAuthError(cause) {
		if err := e.store.UpdateConnectionStatus(ctx, job.conn.ID, models.ConnectionError); err != nil {
			job.log.Error().Err(err).Msg("failed to mark connection unhealthy")
		}
	}

	links, err := e.store.ListAccountLinks(ctx, job.conn.ID)
	if err != nil {
		job.log.Error().Err(err).Msg("failed to list accounts for failure report")
		return
	}

	accountIDs := lo.Map(links, func(l *models.AccountLink, _ int) int64 {
		return l.AccountID
	})
	e.reportOutcome(ctx, accountIDs, SyncOutcome{OK: false, Error: cause.Error()})
}

func failureKind(err error) string {
	if provider.IsAuthError(err) {
		return "auth"
	}
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		return "provider"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "storage"
}
