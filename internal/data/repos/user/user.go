package user

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, u *types.User) (*types.User, error)
	GetByID(dbc dbctx.Context, id uint) (*types.User, error)
	// GetByIdentifier matches email, username or phone.
	GetByIdentifier(dbc dbctx.Context, identifier string) (*types.User, error)
	// Exists reports which of email/username/phone is already taken, in that order.
	Exists(dbc dbctx.Context, email, username, phone string) (string, error)
	UpdateFields(dbc dbctx.Context, id uint, updates map[string]any) error
	// IDsByRole lists the ids of every user holding role, ascending.
	IDsByRole(dbc dbctx.Context, role string) ([]uint, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(dbc dbctx.Context, u *types.User) (*types.User, error) {
	if u == nil {
		return nil, fmt.Errorf("nil user")
	}
	if err := dbc.DB(r.db).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uint) (*types.User, error) {
	var u types.User
	if err := dbc.DB(r.db).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByIdentifier(dbc dbctx.Context, identifier string) (*types.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var u types.User
	err := dbc.DB(r.db).
		Where("email = ? OR username = ? OR (phone <> '' AND phone = ?)", strings.ToLower(identifier), identifier, identifier).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Exists(dbc dbctx.Context, email, username, phone string) (string, error) {
	checks := []struct {
		field string
		value string
	}{
		{"email", strings.ToLower(strings.TrimSpace(email))},
		{"username", strings.TrimSpace(username)},
		{"phone", strings.TrimSpace(phone)},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		var n int64
		if err := dbc.DB(r.db).Model(&types.User{}).Where(c.field+" = ?", c.value).Count(&n).Error; err != nil {
			return "", err
		}
		if n > 0 {
			return c.field, nil
		}
	}
	return "", nil
}

func (r *userRepo) UpdateFields(dbc dbctx.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).Model(&types.User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *userRepo) IDsByRole(dbc dbctx.Context, role string) ([]uint, error) {
	var ids []uint
	err := dbc.DB(r.db).Model(&types.User{}).Where("role = ?", role).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}
