package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledgerlink_sync_pages_total",
		Help: "Diff pages applied and checkpointed.",
	})

	syncEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerlink_sync_entries_total",
		Help: "Diff entries processed, by operation.",
	}, []string{"op"})

	syncFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerlink_sync_failures_total",
		Help: "Sync jobs that ended in the failed state, by error kind.",
	}, []string{"kind"})
)
