package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/jobcost/internal/domain/financials"
	"github.com/google/uuid"
)

// snapshotEntry is a cached snapshot with optional expiration
type snapshotEntry struct {
	snapshot  *financials.ProjectFinancials
	expiresAt time.Time // zero = never expires
}

func (e snapshotEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// InMemorySnapshotCache implements financials.SnapshotCache with a map.
// It stores and returns copies, never the caller's snapshot.
type InMemorySnapshotCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]snapshotEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemorySnapshotCache creates a new in-memory snapshot cache.
// A ttl of zero keeps snapshots until they are deleted.
func NewInMemorySnapshotCache(ttl time.Duration) *InMemorySnapshotCache {
	return &InMemorySnapshotCache{
		entries: make(map[uuid.UUID]snapshotEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached snapshot of a project
func (c *InMemorySnapshotCache) Get(ctx context.Context, projectID uuid.UUID) (*financials.ProjectFinancials, error) {
	c.mu.RLock()
	e, ok := c.entries[projectID]
	c.mu.RUnlock()

	if !ok || e.expired(c.now()) {
		return nil, nil
	}
	return e.snapshot.Clone(), nil
}

// Set stores the snapshot of a project, replacing any previous one
func (c *InMemorySnapshotCache) Set(ctx context.Context, snapshot *financials.ProjectFinancials) error {
	e := snapshotEntry{snapshot: snapshot.Clone()}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[snapshot.ProjectID] = e
	return nil
}

// Delete removes the snapshot of a project
func (c *InMemorySnapshotCache) Delete(ctx context.Context, projectID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, projectID)
	return nil
}

// Size returns the number of live entries (for testing/monitoring)
func (c *InMemorySnapshotCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	n := 0
	for _, e := range c.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

// Ensure InMemorySnapshotCache implements SnapshotCache
var _ financials.SnapshotCache = (*InMemorySnapshotCache)(nil)
