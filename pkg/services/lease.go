package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// leaseRegistry provides per-connection mutual exclusion. The cursor
// checkpoint is not safe under concurrent writers, so a second trigger
// for the same connection is rejected while a lease is held. Jobs for
// different connections are independent.
type leaseRegistry struct {
	mu     sync.Mutex
	leases map[int64]uuid.UUID
}

func newLeaseRegistry() *leaseRegistry {
	return &leaseRegistry{
		leases: make(map[int64]uuid.UUID),
	}
}

// acquire takes the lease for a connection and returns its release
// function, or ErrSyncAlreadyRunning when another job holds it.
func (r *leaseRegistry) acquire(connectionID int64) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.leases[connectionID]; held {
		return nil, fmt.Errorf("%w: %d", ErrSyncAlreadyRunning, connectionID)
	}

	holder := uuid.New()
	r.leases[connectionID] = holder

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		// Only the holder that acquired may release.
		if r.leases[connectionID] == holder {
			delete(r.leases, connectionID)
		}
	}, nil
}
