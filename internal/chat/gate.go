package chat

// Gate allows at most one AI reply in flight per tenant. A trigger that finds
// the tenant busy is dropped, not queued.
type Gate struct {
	locks *tenantLocks
}

func NewGate() *Gate {
	return &Gate{locks: newTenantLocks()}
}

// TryAcquire claims the tenant's slot without blocking. On success the caller
// must invoke release exactly once, possibly from another goroutine.
func (g *Gate) TryAcquire(tenantID uint) (release func(), ok bool) {
	m := g.locks.get(tenantID)
	if !m.TryLock() {
		return nil, false
	}
	return m.Unlock, true
}
