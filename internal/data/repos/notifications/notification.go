package notifications

import (
	"gorm.io/gorm"

	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type NotificationRepo interface {
	Create(dbc dbctx.Context, n *types.Notification) (*types.Notification, error)
	ListByUser(dbc dbctx.Context, userID uint, limit int) ([]*types.Notification, error)
	CountUnread(dbc dbctx.Context, userID uint) (int64, error)
	// MarkRead flips one notification owned by userID; false when nothing matched.
	MarkRead(dbc dbctx.Context, userID, id uint) (bool, error)
	MarkAllRead(dbc dbctx.Context, userID uint) (int64, error)
	// MarkReadByType flips every unread notification of one type owned by userID.
	MarkReadByType(dbc dbctx.Context, userID uint, typ string) (int64, error)
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{db: db, log: baseLog.With("repo", "NotificationRepo")}
}

func (r *notificationRepo) Create(dbc dbctx.Context, n *types.Notification) (*types.Notification, error) {
	if err := dbc.DB(r.db).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

func (r *notificationRepo) ListByUser(dbc dbctx.Context, userID uint, limit int) ([]*types.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.Notification
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *notificationRepo) CountUnread(dbc dbctx.Context, userID uint) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

func (r *notificationRepo) MarkRead(dbc dbctx.Context, userID, id uint) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// Already-read rows report zero affected rows on some drivers.
	var n int64
	if err := dbc.DB(r.db).Model(&types.Notification{}).Where("id = ? AND user_id = ?", id, userID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *notificationRepo) MarkAllRead(dbc dbctx.Context, userID uint) (int64, error) {
	res := dbc.DB(r.db).
		Model(&types.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepo) MarkReadByType(dbc dbctx.Context, userID uint, typ string) (int64, error) {
	res := dbc.DB(r.db).
		Model(&types.Notification{}).
		Where("user_id = ? AND type = ? AND is_read = ?", userID, typ, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
