package cache

import (
	"context"
	"sync"
	"time"

	orgapp "github.com/multipos/console/internal/application/organization"
	"github.com/multipos/console/internal/domain/organization"
	"github.com/multipos/console/internal/domain/shared"
)

type entry struct {
	settings  organization.ScopeSettings
	expiresAt time.Time
}

// InMemorySettingsCache is the single-instance SettingsCache. A
// background goroutine drops expired entries until Close.
type InMemorySettingsCache struct {
	ttl       time.Duration
	now       func() time.Time
	mu        sync.RWMutex
	entries   map[shared.Scope]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySettingsCache creates a cache whose entries live for ttl.
func NewInMemorySettingsCache(ttl time.Duration) *InMemorySettingsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &InMemorySettingsCache{
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[shared.Scope]entry),
		stopChan: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.cleanupLoop(max(ttl, time.Minute))
	return c
}

func (c *InMemorySettingsCache) Get(_ context.Context, scope shared.Scope) (organization.ScopeSettings, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[scope]
	if !ok || !c.now().Before(e.expiresAt) {
		return organization.ScopeSettings{}, false
	}
	return e.settings, true
}

func (c *InMemorySettingsCache) Set(_ context.Context, s organization.ScopeSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[s.Scope] = entry{settings: s, expiresAt: c.now().Add(c.ttl)}
}

func (c *InMemorySettingsCache) Invalidate(_ context.Context, scope shared.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, scope)
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemorySettingsCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemorySettingsCache) cleanupLoop(every time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemorySettingsCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// Size returns the number of entries, expired ones included until the
// next sweep.
func (c *InMemorySettingsCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ orgapp.SettingsCache = (*InMemorySettingsCache)(nil)
