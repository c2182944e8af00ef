package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/vpnda/ledgerlink/db"
	"github.com/vpnda/ledgerlink/pkg/models"
)

// categoryResolver resolves a provider category label plus kind to an
// internal category id, creating the category at most once per
// (user, normalized name, kind). Dedup is enforced by the store's
// uniqueness constraint, not by the cache; the cache only saves round
// trips within one sync job.
type categoryResolver struct {
	mu    sync.Mutex
	cache map[string]int64
}

func newCategoryResolver() *categoryResolver {
	return &categoryResolver{
		cache: make(map[string]int64),
	}
}

// ResolveCategory returns the category id for a raw provider label, or
// nil when the provider supplied no usable label. In that case category
// assignment is left to the downstream rule engine.
func (cr *categoryResolver) ResolveCategory(ctx context.Context, q db.Querier, userID int64, rawLabel string, kind models.CategoryKind) (*int64, error) {
	display, key := models.NormalizeCategoryName(rawLabel)
	if key == "" {
		return nil, nil
	}

	cacheKey := fmt.Sprintf("%s/%s", key, kind)
	cr.mu.Lock()
	if id, ok := cr.cache[cacheKey]; ok {
		cr.mu.Unlock()
		return &id, nil
	}
	cr.mu.Unlock()

	id, err := q.UpsertCategory(ctx, &models.Category{
		UserID:  userID,
		Name:    display,
		NameKey: key,
		Kind:    kind,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category %q: %w", display, err)
	}

	cr.mu.Lock()
	cr.cache[cacheKey] = id
	cr.mu.Unlock()
	return &id, nil
}
