package engine

import (
	"sync"
	"time"
)

type domainEntry struct {
	engineName string
	expiresAt  time.Time
}

// DomainMemory remembers which engine last won for each domain, so a
// repeat crawl of the same site skips straight to it. Entries expire
// after ttl and are pruned hourly.
type DomainMemory struct {
	mu      sync.Mutex
	entries map[string]domainEntry
	ttl     time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewDomainMemory creates a DomainMemory and starts its pruning loop.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	dm := &DomainMemory{
		entries: make(map[string]domainEntry),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go dm.cleanupLoop()
	return dm
}

// Get returns the remembered engine for domain, or "" if none is live.
func (dm *DomainMemory) Get(domain string) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	e, ok := dm.entries[domain]
	if !ok {
		return ""
	}
	if dm.now().After(e.expiresAt) {
		delete(dm.entries, domain)
		return ""
	}
	return e.engineName
}

// Set records the winning engine for domain.
func (dm *DomainMemory) Set(domain, engineName string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.entries[domain] = domainEntry{engineName: engineName, expiresAt: dm.now().Add(dm.ttl)}
}

// Delete forgets domain, e.g. after its remembered engine failed.
func (dm *DomainMemory) Delete(domain string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.entries, domain)
}

// Stop ends the pruning loop. It is safe to call more than once.
func (dm *DomainMemory) Stop() {
	dm.once.Do(func() { close(dm.done) })
}

func (dm *DomainMemory) prune() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	now := dm.now()
	for d, e := range dm.entries {
		if now.After(e.expiresAt) {
			delete(dm.entries, d)
		}
	}
}

func (dm *DomainMemory) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			dm.prune()
		}
	}
}
