package rooms

import (
	"time"

	"gorm.io/gorm"

	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type RoomRepo interface {
	Create(dbc dbctx.Context, room *types.Room) (*types.Room, error)
	List(dbc dbctx.Context) ([]*types.Room, error)
	GetByID(dbc dbctx.Context, id uint) (*types.Room, error)
	ExistsByNumber(dbc dbctx.Context, number string) (bool, error)
	SetStatus(dbc dbctx.Context, id uint, status string) error
	// TransitionStatus moves the room to `to` only when its status is one of
	// from. It reports whether a row changed.
	TransitionStatus(dbc dbctx.Context, id uint, from []string, to string) (bool, error)
	Delete(dbc dbctx.Context, id uint) (bool, error)
}

type roomRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoomRepo(db *gorm.DB, baseLog *logger.Logger) RoomRepo {
	return &roomRepo{db: db, log: baseLog.With("repo", "RoomRepo")}
}

func (r *roomRepo) Create(dbc dbctx.Context, room *types.Room) (*types.Room, error) {
	if err := dbc.DB(r.db).Create(room).Error; err != nil {
		return nil, err
	}
	return room, nil
}

func (r *roomRepo) List(dbc dbctx.Context) ([]*types.Room, error) {
	var out []*types.Room
	if err := dbc.DB(r.db).Order("room_number ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *roomRepo) GetByID(dbc dbctx.Context, id uint) (*types.Room, error) {
	var room types.Room
	if err := dbc.DB(r.db).Where("id = ?", id).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) ExistsByNumber(dbc dbctx.Context, number string) (bool, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.Room{}).Where("room_number = ?", number).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *roomRepo) SetStatus(dbc dbctx.Context, id uint, status string) error {
	return dbc.DB(r.db).
		Model(&types.Room{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

func (r *roomRepo) TransitionStatus(dbc dbctx.Context, id uint, from []string, to string) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.Room{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *roomRepo) Delete(dbc dbctx.Context, id uint) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Room{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
