package chat

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

const (
	DefaultPageLimit = 30
	MaxPageLimit     = 100
)

type ChatMessageRepo interface {
	Create(dbc dbctx.Context, msg *types.ChatMessage) (*types.ChatMessage, error)
	// GetPage returns one page of a tenant's history ordered created_at DESC, id DESC.
	// beforeID narrows the cursor only when beforeCreatedAt is also set.
	GetPage(dbc dbctx.Context, tenantID uint, limit int, beforeCreatedAt *time.Time, beforeID *uint) (*types.MessagePage, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, log *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: log.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Create(dbc dbctx.Context, msg *types.ChatMessage) (*types.ChatMessage, error) {
	if msg == nil {
		return nil, fmt.Errorf("nil message")
	}
	if msg.TenantID == 0 {
		return nil, fmt.Errorf("missing tenant_id")
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil, fmt.Errorf("empty content")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	// Postgres keeps microseconds; truncating up front makes the in-memory value
	// identical to what a later page query will compare against.
	msg.CreatedAt = msg.CreatedAt.UTC().Truncate(time.Microsecond)

	if err := dbc.DB(r.db).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *chatMessageRepo) GetPage(dbc dbctx.Context, tenantID uint, limit int, beforeCreatedAt *time.Time, beforeID *uint) (*types.MessagePage, error) {
	if tenantID == 0 {
		return nil, fmt.Errorf("missing tenant_id")
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	q := dbc.DB(r.db).
		Model(&types.ChatMessage{}).
		Where("tenant_id = ?", tenantID)

	if beforeCreatedAt != nil {
		t := beforeCreatedAt.UTC()
		if beforeID != nil {
			q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", t, t, *beforeID)
		} else {
			q = q.Where("created_at < ?", t)
		}
	}

	var rows []*types.ChatMessage
	if err := q.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	page := &types.MessagePage{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		page.HasMore = true
		last := page.Items[len(page.Items)-1]
		ts := last.CreatedAt.UTC()
		id := last.ID
		page.NextBeforeCreatedAt = &ts
		page.NextBeforeID = &id
	}
	if page.Items == nil {
		page.Items = []*types.ChatMessage{}
	}
	return page, nil
}
