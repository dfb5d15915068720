package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/chadayu1004/smart-apartment-ai/internal/chat"
	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos"
	chatrepo "github.com/chadayu1004/smart-apartment-ai/internal/data/repos/chat"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type ChatHistoryQuery struct {
	TenantID        uint
	Limit           int
	BeforeCreatedAt *time.Time
	BeforeID        *uint
}

// ChatHistoryPage is the wire shape of one history page.
type ChatHistoryPage struct {
	Items               []chat.MessageEvent `json:"items"`
	HasMore             bool                `json:"has_more"`
	NextBeforeCreatedAt *string             `json:"next_before_created_at"`
	NextBeforeID        *uint               `json:"next_before_id"`
}

type ChatHistoryService interface {
	Page(ctx context.Context, q ChatHistoryQuery) (*ChatHistoryPage, error)
}

type chatHistoryService struct {
	log      *logger.Logger
	messages repos.ChatMessageRepo
	policy   chat.Policy
}

func NewChatHistoryService(log *logger.Logger, messages repos.ChatMessageRepo, policy chat.Policy) ChatHistoryService {
	return &chatHistoryService{log: log.With("service", "ChatHistoryService"), messages: messages, policy: policy}
}

// ParseChatHistoryQuery validates raw query parameters. Blank values take defaults.
func ParseChatHistoryQuery(tenantID, limit, beforeCreatedAt, beforeID string) (ChatHistoryQuery, error) {
	var q ChatHistoryQuery

	tid, err := strconv.ParseUint(strings.TrimSpace(tenantID), 10, 64)
	if err != nil || tid == 0 {
		return q, apierr.Wrap(apierr.ErrInvalidArgument, "tenant_id must be a positive integer")
	}
	q.TenantID = uint(tid)

	q.Limit = chatrepo.DefaultPageLimit
	if v := strings.TrimSpace(limit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > chatrepo.MaxPageLimit {
			return q, apierr.Wrap(apierr.ErrInvalidArgument, "limit must be between 1 and %d", chatrepo.MaxPageLimit)
		}
		q.Limit = n
	}

	if v := strings.TrimSpace(beforeCreatedAt); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return q, apierr.Wrap(apierr.ErrInvalidArgument, "before_created_at must be an RFC 3339 timestamp")
		}
		t = t.UTC()
		q.BeforeCreatedAt = &t
	}

	if v := strings.TrimSpace(beforeID); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return q, apierr.Wrap(apierr.ErrInvalidArgument, "before_id must be an integer")
		}
		u := uint(id)
		q.BeforeID = &u
	}
	return q, nil
}

func (s *chatHistoryService) Page(ctx context.Context, q ChatHistoryQuery) (*ChatHistoryPage, error) {
	id, err := IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(id, q.TenantID); err != nil {
		return nil, err
	}
	page, err := s.messages.GetPage(dbctx.Context{Ctx: ctx}, q.TenantID, q.Limit, q.BeforeCreatedAt, q.BeforeID)
	if err != nil {
		return nil, err
	}
	return toHistoryPage(page), nil
}

func toHistoryPage(p *types.MessagePage) *ChatHistoryPage {
	out := &ChatHistoryPage{
		Items:        make([]chat.MessageEvent, 0, len(p.Items)),
		HasMore:      p.HasMore,
		NextBeforeID: p.NextBeforeID,
	}
	for _, m := range p.Items {
		out.Items = append(out.Items, chat.NewMessageEvent(m))
	}
	if p.NextBeforeCreatedAt != nil {
		ts := p.NextBeforeCreatedAt.UTC().Format(time.RFC3339Nano)
		out.NextBeforeCreatedAt = &ts
	}
	return out
}
