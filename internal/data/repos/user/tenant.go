package user

import (
	"errors"
	"time"

	"gorm.io/gorm"

	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	domainuser "github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type TenantRepo interface {
	List(dbc dbctx.Context) ([]*types.Tenant, error)
	GetByID(dbc dbctx.Context, id uint) (*types.Tenant, error)
	// UpsertByIDCard updates the tenant holding idCard, or creates it. The tenant ends up active.
	UpsertByIDCard(dbc dbctx.Context, in *types.Tenant) (*types.Tenant, error)
}

type tenantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTenantRepo(db *gorm.DB, baseLog *logger.Logger) TenantRepo {
	return &tenantRepo{db: db, log: baseLog.With("repo", "TenantRepo")}
}

func (r *tenantRepo) List(dbc dbctx.Context) ([]*types.Tenant, error) {
	var out []*types.Tenant
	if err := dbc.DB(r.db).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tenantRepo) GetByID(dbc dbctx.Context, id uint) (*types.Tenant, error) {
	var t types.Tenant
	if err := dbc.DB(r.db).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepo) UpsertByIDCard(dbc dbctx.Context, in *types.Tenant) (*types.Tenant, error) {
	db := dbc.DB(r.db)
	var existing types.Tenant
	err := db.Where("id_card_number = ?", in.IDCardNumber).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		in.Status = domainuser.TenantStatusActive
		if err := db.Create(in).Error; err != nil {
			return nil, err
		}
		return in, nil
	case err != nil:
		return nil, err
	}

	updates := map[string]any{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"phone":      in.Phone,
		"status":     domainuser.TenantStatusActive,
		"updated_at": time.Now().UTC(),
	}
	if in.Email != "" {
		updates["email"] = in.Email
	}
	if err := db.Model(&existing).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetByID(dbc, existing.ID)
}
