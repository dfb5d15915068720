package billing

import (
	"time"

	"gorm.io/gorm"

	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type PaymentRepo interface {
	Create(dbc dbctx.Context, p *types.Payment) (*types.Payment, error)
	GetByID(dbc dbctx.Context, id uint) (*types.Payment, error)
	ListByUser(dbc dbctx.Context, userID uint) ([]*types.Payment, error)
	// ListForAdmin returns every payment, newest first, with tenant name and room number.
	ListForAdmin(dbc dbctx.Context) ([]*types.AdminPaymentView, error)
	// TransitionStatus changes status from -> to; false when the payment was not in `from`.
	TransitionStatus(dbc dbctx.Context, id uint, from, to string) (bool, error)
}

type paymentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRepo {
	return &paymentRepo{db: db, log: baseLog.With("repo", "PaymentRepo")}
}

func (r *paymentRepo) Create(dbc dbctx.Context, p *types.Payment) (*types.Payment, error) {
	if err := dbc.DB(r.db).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepo) GetByID(dbc dbctx.Context, id uint) (*types.Payment, error) {
	var p types.Payment
	if err := dbc.DB(r.db).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) ListByUser(dbc dbctx.Context, userID uint) ([]*types.Payment, error) {
	var out []*types.Payment
	err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *paymentRepo) ListForAdmin(dbc dbctx.Context) ([]*types.AdminPaymentView, error) {
	var out []*types.AdminPaymentView
	err := dbc.DB(r.db).
		Table("payment AS p").
		Select(`p.*,
			TRIM(COALESCE(t.first_name, '') || ' ' || COALESCE(t.last_name, '')) AS tenant_name,
			COALESCE(rm.room_number, '') AS room_number`).
		Joins("LEFT JOIN tenant AS t ON t.id = p.tenant_id").
		Joins("LEFT JOIN contract AS c ON c.id = p.contract_id").
		Joins("LEFT JOIN room AS rm ON rm.id = c.room_id").
		Order("p.created_at DESC").
		Order("p.id DESC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *paymentRepo) TransitionStatus(dbc dbctx.Context, id uint, from, to string) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.Payment{}).
		Where("id = ? AND payment_status = ?", id, from).
		Updates(map[string]any{"payment_status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
