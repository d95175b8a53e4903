package weather

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/HexSleeves/parasol/internal/store"
)

// CachedService wraps another Service with a SQLite-backed report cache.
// Repeated lookups for the same city within the TTL skip the network.
type CachedService struct {
	inner Service
	store *store.Store
	ttl   time.Duration
}

// NewCachedService caches inner's reports in st for ttl. A zero ttl keeps
// entries until ClearReports removes them.
func NewCachedService(inner Service, st *store.Store, ttl time.Duration) *CachedService {
	return &CachedService{inner: inner, store: st, ttl: ttl}
}

// Lookup returns a cached report when one is fresh enough, otherwise
// queries the inner service and stores the result.
func (c *CachedService) Lookup(ctx context.Context, city string) (*Report, error) {
	key := strings.ToLower(strings.TrimSpace(city))

	if payload, ok, err := c.store.GetReport(key, c.ttl); err == nil && ok {
		var report Report
		if err := json.Unmarshal(payload, &report); err == nil {
			return &report, nil
		}
		// Undecodable cache entry; fall through and refetch.
	}

	report, err := c.inner.Lookup(ctx, city)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(report); err == nil {
		// Cache write failures don't fail the lookup.
		_ = c.store.PutReport(key, payload)
	}

	return report, nil
}
