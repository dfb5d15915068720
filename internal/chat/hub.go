package chat

import (
	"context"
	"encoding/json"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/observability"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

// Relay forwards message events to other server instances.
type Relay interface {
	PublishChat(ctx context.Context, tenantID uint, payload []byte) error
}

// Hub tracks live connections per tenant thread and the number of admins
// among them. It keeps the thread's AI flag equal to "no admin connected".
type Hub struct {
	log     *logger.Logger
	threads repos.ChatThreadRepo
	relay   Relay

	// mu guards conns and admins. It is never held across I/O.
	mu     sync.Mutex
	conns  map[uint]map[*Connection]struct{}
	admins map[uint]int

	// syncLocks orders thread-state writes and presence frames per tenant so
	// the last of each reflects the presence observed at that time.
	syncLocks *tenantLocks
}

func NewHub(log *logger.Logger, threads repos.ChatThreadRepo) *Hub {
	return &Hub{
		log:       log.With("component", "ChatHub"),
		threads:   threads,
		conns:     make(map[uint]map[*Connection]struct{}),
		admins:    make(map[uint]int),
		syncLocks: newTenantLocks(),
	}
}

// SetRelay enables cross-instance delivery of message events. Call before serving.
func (h *Hub) SetRelay(r Relay) {
	h.relay = r
}

func (h *Hub) Join(ctx context.Context, c *Connection) {
	h.mu.Lock()
	set, ok := h.conns[c.TenantID]
	if !ok {
		set = make(map[*Connection]struct{})
		h.conns[c.TenantID] = set
	}
	set[c] = struct{}{}
	if c.IsAdmin() {
		h.admins[c.TenantID]++
	}
	h.mu.Unlock()
	observability.Current().ChatConnectionOpened(c.Identity.Role)

	h.log.Debug("Chat connection joined",
		"tenant_id", c.TenantID,
		"conn_id", c.ID,
		"role", c.Identity.Role,
		"user_id", c.Identity.UserID,
	)
	h.syncPresence(ctx, c.TenantID)
}

func (h *Hub) Leave(ctx context.Context, c *Connection) {
	h.mu.Lock()
	if set, ok := h.conns[c.TenantID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, c.TenantID)
		}
	}
	if c.IsAdmin() {
		if n := h.admins[c.TenantID] - 1; n > 0 {
			h.admins[c.TenantID] = n
		} else {
			delete(h.admins, c.TenantID)
		}
	}
	h.mu.Unlock()
	observability.Current().ChatConnectionClosed(c.Identity.Role)

	h.log.Debug("Chat connection left",
		"tenant_id", c.TenantID,
		"conn_id", c.ID,
		"role", c.Identity.Role,
	)
	h.syncPresence(ctx, c.TenantID)
}

func (h *Hub) IsAdminActive(tenantID uint) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.admins[tenantID] > 0
}

// ConnectionCount returns how many connections are registered for tenantID.
func (h *Hub) ConnectionCount(tenantID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[tenantID])
}

// BroadcastJSON sends payload to every connection registered for tenantID at
// call time. Sends run concurrently; a failing peer is logged and skipped.
// It returns once every send has finished.
func (h *Hub) BroadcastJSON(ctx context.Context, tenantID uint, payload any) {
	h.mu.Lock()
	targets := make([]*Connection, 0, len(h.conns[tenantID]))
	for c := range h.conns[tenantID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	var g errgroup.Group
	for _, c := range targets {
		c := c
		g.Go(func() error {
			if err := c.Send(payload); err != nil {
				h.log.Debug("Chat send failed",
					"tenant_id", tenantID,
					"conn_id", c.ID,
					"error", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// BroadcastMessage delivers a persisted message locally and, when a relay is
// configured, to the other instances.
func (h *Hub) BroadcastMessage(ctx context.Context, m *types.ChatMessage) {
	ev := NewMessageEvent(m)
	h.BroadcastJSON(ctx, m.TenantID, ev)

	if h.relay == nil {
		return
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		h.log.Warn("Chat relay encode failed", "tenant_id", m.TenantID, "error", err)
		return
	}
	if err := h.relay.PublishChat(ctx, m.TenantID, raw); err != nil {
		h.log.Warn("Chat relay publish failed", "tenant_id", m.TenantID, "error", err)
	}
}

// DeliverRemote fans out an event received from another instance to local
// connections only.
func (h *Hub) DeliverRemote(ctx context.Context, tenantID uint, raw []byte) {
	if !json.Valid(raw) {
		h.log.Debug("Dropping malformed relayed chat event", "tenant_id", tenantID)
		return
	}
	h.BroadcastJSON(ctx, tenantID, json.RawMessage(raw))
}

// syncPresence writes the thread's AI flag and announces presence from one
// snapshot taken under the tenant's sync lock.
func (h *Hub) syncPresence(ctx context.Context, tenantID uint) {
	l := h.syncLocks.get(tenantID)
	l.Lock()
	defer l.Unlock()

	active := h.IsAdminActive(tenantID)
	if h.threads != nil {
		if err := h.threads.SetAIEnabled(dbctx.Context{Ctx: ctx}, tenantID, !active); err != nil {
			h.log.Warn("Chat thread state sync failed",
				"tenant_id", tenantID,
				"ai_enabled", !active,
				"error", err,
			)
		}
	}
	h.BroadcastJSON(ctx, tenantID, PresenceEvent{
		Type:        EventPresence,
		AdminActive: active,
	})
}
