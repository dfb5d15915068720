package rooms

import (
	"time"

	"gorm.io/gorm"

	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type BookingRepo interface {
	Create(dbc dbctx.Context, b *types.BookingRequest) (*types.BookingRequest, error)
	GetByID(dbc dbctx.Context, id uint) (*types.BookingRequest, error)
	// ListNewestFirst returns every booking ordered by created_at DESC.
	ListNewestFirst(dbc dbctx.Context) ([]*types.BookingRequest, error)
	SetStatus(dbc dbctx.Context, id uint, status string) error
	// TransitionStatus changes status from -> to; false when the booking was not in `from`.
	TransitionStatus(dbc dbctx.Context, id uint, from, to string) (bool, error)
}

type bookingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookingRepo(db *gorm.DB, baseLog *logger.Logger) BookingRepo {
	return &bookingRepo{db: db, log: baseLog.With("repo", "BookingRepo")}
}

func (r *bookingRepo) Create(dbc dbctx.Context, b *types.BookingRequest) (*types.BookingRequest, error) {
	if err := dbc.DB(r.db).Create(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepo) GetByID(dbc dbctx.Context, id uint) (*types.BookingRequest, error) {
	var b types.BookingRequest
	if err := dbc.DB(r.db).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepo) ListNewestFirst(dbc dbctx.Context) ([]*types.BookingRequest, error) {
	var out []*types.BookingRequest
	if err := dbc.DB(r.db).Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *bookingRepo) SetStatus(dbc dbctx.Context, id uint, status string) error {
	return dbc.DB(r.db).
		Model(&types.BookingRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

func (r *bookingRepo) TransitionStatus(dbc dbctx.Context, id uint, from, to string) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.BookingRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
