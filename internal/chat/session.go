package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	domainchat "github.com/chadayu1004/smart-apartment-ai/internal/domain/chat"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
	"github.com/chadayu1004/smart-apartment-ai/internal/observability"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

// Authenticator resolves a bearer token into a caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.Identity, error)
}

// Responder produces the AI reply for a tenant utterance. It never fails;
// problems come back as a presentable fallback text.
type Responder interface {
	Reply(ctx context.Context, utterance string) string
}

// SessionService drives chat connections from authentication to teardown.
type SessionService struct {
	log      *logger.Logger
	hub      *Hub
	gate     *Gate
	threads  repos.ChatThreadRepo
	messages repos.ChatMessageRepo
	auth     Authenticator
	ai       Responder
	policy   Policy

	inflight sync.WaitGroup
}

type SessionDeps struct {
	Hub      *Hub
	Gate     *Gate
	Threads  repos.ChatThreadRepo
	Messages repos.ChatMessageRepo
	Auth     Authenticator
	AI       Responder
	Policy   Policy
}

func NewSessionService(log *logger.Logger, deps SessionDeps) *SessionService {
	gate := deps.Gate
	if gate == nil {
		gate = NewGate()
	}
	return &SessionService{
		log:      log.With("service", "ChatSessionService"),
		hub:      deps.Hub,
		gate:     gate,
		threads:  deps.Threads,
		messages: deps.Messages,
		auth:     deps.Auth,
		ai:       deps.AI,
		policy:   deps.Policy,
	}
}

// Serve runs one connection until the transport fails or closes. The
// transport must already be upgraded: rejections are written to it as an
// error event and returned, with nothing registered in the Hub.
// A nil return means the peer disconnected normally.
func (s *SessionService) Serve(ctx context.Context, t Transport, token string, tenantID uint) error {
	id, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		if !errors.Is(err, apierr.ErrUnauthenticated) {
			err = fmt.Errorf("%w: %v", apierr.ErrUnauthenticated, err)
		}
		return s.reject(t, err)
	}
	if err := s.policy.Authorize(id, tenantID); err != nil {
		s.log.Info("Chat connection refused", "tenant_id", tenantID, "user_id", id.UserID, "role", id.Role)
		return s.reject(t, err)
	}
	if _, err := s.threads.Ensure(dbctx.Context{Ctx: ctx}, tenantID); err != nil {
		return s.reject(t, fmt.Errorf("ensure chat thread: %w", err))
	}

	conn := NewConnection(t, id, tenantID)
	s.hub.Join(ctx, conn)
	defer s.hub.Leave(context.WithoutCancel(ctx), conn)

	for {
		raw, err := t.ReadMessage()
		if err != nil {
			s.log.Debug("Chat connection closed", "tenant_id", tenantID, "conn_id", conn.ID, "reason", err)
			return nil
		}
		if err := s.handleInbound(ctx, conn, raw); err != nil {
			s.log.Error("Chat session aborted", "tenant_id", tenantID, "conn_id", conn.ID, "error", err)
			return err
		}
	}
}

// Wait blocks until every AI reply started by this service has finished.
func (s *SessionService) Wait() {
	s.inflight.Wait()
}

// Refuse reports err on an upgraded transport that will not be served and
// returns it. Nothing is registered in the Hub.
func (s *SessionService) Refuse(t Transport, err error) error {
	return s.reject(t, err)
}

func (s *SessionService) reject(t Transport, err error) error {
	_, code := apierr.Classify(err)
	msg := err.Error()
	if code == "internal" {
		msg = "internal error"
	}
	if werr := t.WriteJSON(ErrorEvent{Type: EventError, Code: code, Message: msg}); werr != nil {
		s.log.Debug("Failed to write chat error event", "error", werr)
	}
	return err
}

func (s *SessionService) handleInbound(ctx context.Context, conn *Connection, raw []byte) error {
	var in inboundMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		s.log.Debug("Ignoring malformed chat frame", "conn_id", conn.ID)
		return nil
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil
	}

	uid := conn.Identity.UserID
	msg, err := s.messages.Create(dbctx.Context{Ctx: ctx}, &types.ChatMessage{
		TenantID:     conn.TenantID,
		SenderRole:   conn.Identity.Role,
		SenderUserID: &uid,
		Content:      content,
	})
	if err != nil {
		return fmt.Errorf("persist chat message: %w", err)
	}
	observability.Current().IncChatMessage(msg.SenderRole)
	s.hub.BroadcastMessage(ctx, msg)

	if conn.Identity.Role == domainchat.SenderTenant {
		s.maybeReply(ctx, conn.TenantID, content)
	}
	return nil
}

func (s *SessionService) maybeReply(ctx context.Context, tenantID uint, utterance string) {
	if s.ai == nil || s.hub.IsAdminActive(tenantID) {
		return
	}
	th, err := s.threads.GetByTenantID(dbctx.Context{Ctx: ctx}, tenantID)
	if err != nil {
		s.log.Warn("Skipping AI reply, thread state unavailable", "tenant_id", tenantID, "error", err)
		return
	}
	if !th.AIEnabled {
		return
	}

	release, ok := s.gate.TryAcquire(tenantID)
	if !ok {
		s.log.Debug("AI reply already in flight, dropping trigger", "tenant_id", tenantID)
		return
	}

	// The reply outlives the session that triggered it.
	aiCtx := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer release()
		s.reply(aiCtx, tenantID, utterance)
	}()
}

func (s *SessionService) reply(ctx context.Context, tenantID uint, utterance string) {
	text := strings.TrimSpace(s.ai.Reply(ctx, utterance))
	if text == "" {
		return
	}
	msg, err := s.messages.Create(dbctx.Context{Ctx: ctx}, &types.ChatMessage{
		TenantID:   tenantID,
		SenderRole: domainchat.SenderAI,
		Content:    text,
	})
	if err != nil {
		s.log.Error("Failed to persist AI reply", "tenant_id", tenantID, "error", err)
		return
	}
	observability.Current().IncChatMessage(msg.SenderRole)
	s.hub.BroadcastMessage(ctx, msg)
}

// IsRejection reports whether err came from authentication or authorization.
func IsRejection(err error) bool {
	return errors.Is(err, apierr.ErrUnauthenticated) ||
		errors.Is(err, apierr.ErrForbidden) ||
		errors.Is(err, apierr.ErrInvalidArgument)
}
