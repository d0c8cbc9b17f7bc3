// Package stores provides in-memory caches in front of the document store.
package stores

import (
	"sync"
	"time"

	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
)

// ProfileStore caches loaded visitor profiles and serializes access per
// visitor. When the backing store fails, a visitor can be marked degraded
// and its profile lives here only, in-memory, for the process lifetime.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*profile.VisitorProfile
	degraded map[string]bool
	locks    map[string]*sync.Mutex
	logger   *logging.ChanneledLogger
}

// NewProfileStore creates an empty profile cache.
func NewProfileStore(logger *logging.ChanneledLogger) *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]*profile.VisitorProfile),
		degraded: make(map[string]bool),
		locks:    make(map[string]*sync.Mutex),
		logger:   logger,
	}
}

// Lock acquires the per-visitor mutex, creating it on first use. Callers
// must release with Unlock. Cross-process writers are not serialized; the
// persisted document stays last-writer-wins.
func (ps *ProfileStore) Lock(visitorID string) {
	ps.mu.Lock()
	lock, ok := ps.locks[visitorID]
	if !ok {
		lock = &sync.Mutex{}
		ps.locks[visitorID] = lock
	}
	ps.mu.Unlock()

	lock.Lock()
}

// Unlock releases the per-visitor mutex.
func (ps *ProfileStore) Unlock(visitorID string) {
	ps.mu.RLock()
	lock, ok := ps.locks[visitorID]
	ps.mu.RUnlock()
	if ok {
		lock.Unlock()
	}
}

// Get returns the cached profile for a visitor, if present.
func (ps *ProfileStore) Get(visitorID string) (*profile.VisitorProfile, bool) {
	start := time.Now()
	ps.mu.RLock()
	p, ok := ps.profiles[visitorID]
	ps.mu.RUnlock()

	ps.logger.LogStorageOperation("cache_get", visitorID, ok, time.Since(start))
	return p, ok
}

// Set caches a profile.
func (ps *ProfileStore) Set(visitorID string, p *profile.VisitorProfile) {
	ps.mu.Lock()
	ps.profiles[visitorID] = p
	ps.mu.Unlock()

	ps.logger.Storage().Debug("Cache operation", "operation", "set", "visitorId", visitorID)
}

// Remove evicts a profile from the cache and clears its degraded flag.
func (ps *ProfileStore) Remove(visitorID string) {
	ps.mu.Lock()
	delete(ps.profiles, visitorID)
	delete(ps.degraded, visitorID)
	ps.mu.Unlock()

	ps.logger.Storage().Debug("Cache operation", "operation", "remove", "visitorId", visitorID)
}

// MarkDegraded flags a visitor as in-memory-only after a storage failure.
func (ps *ProfileStore) MarkDegraded(visitorID string) {
	ps.mu.Lock()
	ps.degraded[visitorID] = true
	ps.mu.Unlock()

	ps.logger.Storage().Warn("Profile degraded to in-memory only", "visitorId", visitorID)
}

// IsDegraded reports whether a visitor's profile is in-memory only.
func (ps *ProfileStore) IsDegraded(visitorID string) bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.degraded[visitorID]
}

// VisitorIDs returns all cached visitor ids, for the ops session map.
func (ps *ProfileStore) VisitorIDs() []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	ids := make([]string, 0, len(ps.profiles))
	for id := range ps.profiles {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of cached profiles.
func (ps *ProfileStore) Count() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.profiles)
}
