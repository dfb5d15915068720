package chat

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type ChatThreadRepo interface {
	// Ensure returns the tenant's thread, creating it with AI enabled if absent.
	Ensure(dbc dbctx.Context, tenantID uint) (*types.ChatThread, error)
	GetByTenantID(dbc dbctx.Context, tenantID uint) (*types.ChatThread, error)
	// SetAIEnabled upserts the thread with the given flag.
	SetAIEnabled(dbc dbctx.Context, tenantID uint, enabled bool) error
}

type chatThreadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatThreadRepo(db *gorm.DB, log *logger.Logger) ChatThreadRepo {
	return &chatThreadRepo{db: db, log: log.With("repo", "ChatThreadRepo")}
}

func (r *chatThreadRepo) Ensure(dbc dbctx.Context, tenantID uint) (*types.ChatThread, error) {
	if tenantID == 0 {
		return nil, fmt.Errorf("missing tenant_id")
	}
	now := time.Now().UTC()
	row := &types.ChatThread{
		TenantID:  tenantID,
		AIEnabled: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tenant_id"}}, DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetByTenantID(dbc, tenantID)
}

func (r *chatThreadRepo) GetByTenantID(dbc dbctx.Context, tenantID uint) (*types.ChatThread, error) {
	var out types.ChatThread
	err := dbc.DB(r.db).Where("tenant_id = ?", tenantID).Limit(1).Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &out, nil
}

func (r *chatThreadRepo) SetAIEnabled(dbc dbctx.Context, tenantID uint, enabled bool) error {
	if tenantID == 0 {
		return fmt.Errorf("missing tenant_id")
	}
	now := time.Now().UTC()
	row := &types.ChatThread{
		TenantID:  tenantID,
		AIEnabled: enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"ai_enabled", "updated_at"}),
		}).
		Create(row).Error
}
