package usecase

import (
	"sync"
	"time"

	permissionDomain "github.com/allisson/trustcore/internal/permission/domain"
)

// grantIndex caches the expiry of known active grants. Entries at or past their expiry are
// dropped on every access, so a hit always means the grant is still active.
type grantIndex struct {
	mu      sync.Mutex
	entries map[permissionDomain.GrantKey]time.Time
}

func newGrantIndex() *grantIndex {
	return &grantIndex{entries: make(map[permissionDomain.GrantKey]time.Time)}
}

func (g *grantIndex) active(key permissionDomain.GrantKey, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweepLocked(now)
	_, ok := g.entries[key]
	return ok
}

func (g *grantIndex) put(key permissionDomain.GrantKey, expiresAt, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweepLocked(now)
	if expiresAt.After(now) {
		g.entries[key] = expiresAt
	}
}

func (g *grantIndex) sweep(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweepLocked(now)
}

func (g *grantIndex) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.entries)
}

func (g *grantIndex) sweepLocked(now time.Time) {
	for key, expiresAt := range g.entries {
		if !expiresAt.After(now) {
			delete(g.entries, key)
		}
	}
}
