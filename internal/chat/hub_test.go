package chat

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
)

func TestHubPresenceInvariantAcrossJoinLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	var live []*Connection
	observer := newFakeTransport()
	f.hub.Join(ctx, NewConnection(observer, tenant7ID, 7))

	for step := 0; step < 60; step++ {
		if len(live) == 0 || rng.Intn(2) == 0 {
			id := tenant7ID
			if rng.Intn(2) == 0 {
				id = adminID
			}
			c := NewConnection(newFakeTransport(), id, 7)
			f.hub.Join(ctx, c)
			live = append(live, c)
		} else {
			i := rng.Intn(len(live))
			f.hub.Leave(ctx, live[i])
			live = append(live[:i], live[i+1:]...)
		}

		admins := 0
		for _, c := range live {
			if c.IsAdmin() {
				admins++
			}
		}
		require.Equal(t, admins > 0, f.hub.IsAdminActive(7), "step %d", step)
		require.Equal(t, admins == 0, f.aiEnabled(t, 7), "step %d", step)
		require.Equal(t, len(live)+1, f.hub.ConnectionCount(7))

		presence := observer.events(EventPresence)
		require.Equal(t, step+2, len(presence), "one presence event per join/leave")
		require.Equal(t, admins > 0, presence[len(presence)-1]["admin_active"])
	}
}

func TestHubLastPresenceFrameMatchesStateUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	observer := newFakeTransport()
	f.hub.Join(ctx, NewConnection(observer, tenant7ID, 7))

	const churn, stay = 17, 3
	stayers := make([]*Connection, stay)
	var wg sync.WaitGroup
	for i := 0; i < churn+stay; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := NewConnection(newFakeTransport(), adminID, 7)
			f.hub.Join(ctx, c)
			if i < stay {
				stayers[i] = c
				return
			}
			f.hub.Leave(ctx, c)
		}(i)
	}
	wg.Wait()

	presence := observer.events(EventPresence)
	require.Len(t, presence, 1+2*churn+stay)
	require.True(t, f.hub.IsAdminActive(7))
	require.Equal(t, true, presence[len(presence)-1]["admin_active"])
	require.False(t, f.aiEnabled(t, 7))

	for _, c := range stayers {
		wg.Add(1)
		go func(c *Connection) {
			defer wg.Done()
			f.hub.Leave(ctx, c)
		}(c)
	}
	wg.Wait()

	presence = observer.events(EventPresence)
	require.False(t, f.hub.IsAdminActive(7))
	require.Equal(t, false, presence[len(presence)-1]["admin_active"])
	require.True(t, f.aiEnabled(t, 7))
}

func TestHubLeaveDropsEmptyTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := NewConnection(newFakeTransport(), adminID, 3)
	f.hub.Join(ctx, c)
	require.True(t, f.hub.IsAdminActive(3))
	f.hub.Leave(ctx, c)
	require.False(t, f.hub.IsAdminActive(3))
	require.Zero(t, f.hub.ConnectionCount(3))

	f.hub.mu.Lock()
	_, hasConns := f.hub.conns[3]
	_, hasAdmins := f.hub.admins[3]
	f.hub.mu.Unlock()
	require.False(t, hasConns)
	require.False(t, hasAdmins)

	// Unknown tenants are never admin-active.
	require.False(t, f.hub.IsAdminActive(404))
}

func TestHubBroadcastSurvivesFailingPeer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	good1, bad, good2 := newFakeTransport(), newFakeTransport(), newFakeTransport()
	bad.failSend = true
	for _, tr := range []*fakeTransport{good1, bad, good2} {
		f.hub.Join(ctx, NewConnection(tr, tenant7ID, 7))
	}
	other := newFakeTransport()
	f.hub.Join(ctx, NewConnection(other, user.Identity{UserID: 2, Role: user.RoleTenant, TenantID: uintPtr(8)}, 8))
	before := other.total()

	f.hub.BroadcastJSON(ctx, 7, map[string]any{"type": "ping", "n": 1})

	require.Len(t, good1.events("ping"), 1)
	require.Len(t, good2.events("ping"), 1)
	require.Empty(t, bad.events("ping"))
	require.Equal(t, before, other.total(), "other tenants must not receive the event")
}

type recordingRelay struct {
	tenants  []uint
	payloads [][]byte
}

func (r *recordingRelay) PublishChat(_ context.Context, tenantID uint, payload []byte) error {
	r.tenants = append(r.tenants, tenantID)
	r.payloads = append(r.payloads, payload)
	return nil
}

func TestHubRelayAndRemoteDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	relay := &recordingRelay{}
	f.hub.SetRelay(relay)

	tr := newFakeTransport()
	f.hub.Join(ctx, NewConnection(tr, tenant7ID, 7))

	f.hub.DeliverRemote(ctx, 7, []byte(`{"type":"message","id":99,"tenant_id":7,"sender_role":"admin","content":"hi"}`))
	f.hub.DeliverRemote(ctx, 7, []byte(`not json`))
	msgs := tr.events(EventMessage)
	require.Len(t, msgs, 1)
	require.EqualValues(t, 99, msgs[0]["id"])
	require.Empty(t, relay.tenants, "remote events must not be re-published")
}
