package chat

import "sync"

// tenantLocks hands out one mutex per tenant. Entries are never evicted;
// the number of tenants in a building is small and fixed.
type tenantLocks struct {
	mu sync.Mutex
	m  map[uint]*sync.Mutex
}

func newTenantLocks() *tenantLocks {
	return &tenantLocks{m: make(map[uint]*sync.Mutex)}
}

func (l *tenantLocks) get(tenantID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.m[tenantID]
	if !ok {
		m = &sync.Mutex{}
		l.m[tenantID] = m
	}
	return m
}
