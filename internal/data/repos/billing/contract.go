package billing

import (
	"time"

	"gorm.io/gorm"

	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/billing"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type ContractRepo interface {
	Create(dbc dbctx.Context, c *types.Contract) (*types.Contract, error)
	GetByID(dbc dbctx.Context, id uint) (*types.Contract, error)
	// LatestByBooking returns the newest contract of contractType made from bookingID.
	LatestByBooking(dbc dbctx.Context, bookingID uint, contractType string) (*types.Contract, error)
	LatestByUser(dbc dbctx.Context, userID uint) (*types.Contract, error)
	// NextContractNo returns the next free number of contractType for day.
	// Call inside the transaction that creates the contract.
	NextContractNo(dbc dbctx.Context, contractType string, day time.Time) (string, error)
	UpdateFields(dbc dbctx.Context, id uint, updates map[string]any) error
}

type contractRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContractRepo(db *gorm.DB, baseLog *logger.Logger) ContractRepo {
	return &contractRepo{db: db, log: baseLog.With("repo", "ContractRepo")}
}

func (r *contractRepo) Create(dbc dbctx.Context, c *types.Contract) (*types.Contract, error) {
	if err := dbc.DB(r.db).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *contractRepo) GetByID(dbc dbctx.Context, id uint) (*types.Contract, error) {
	var c types.Contract
	if err := dbc.DB(r.db).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contractRepo) LatestByBooking(dbc dbctx.Context, bookingID uint, contractType string) (*types.Contract, error) {
	var c types.Contract
	err := dbc.DB(r.db).
		Where("booking_id = ? AND contract_type = ?", bookingID, contractType).
		Order("id DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contractRepo) LatestByUser(dbc dbctx.Context, userID uint) (*types.Contract, error) {
	var c types.Contract
	if err := dbc.DB(r.db).Where("user_id = ?", userID).Order("id DESC").First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contractRepo) NextContractNo(dbc dbctx.Context, contractType string, day time.Time) (string, error) {
	base := billing.ContractNoBase(contractType, day)
	var last []string
	err := dbc.DB(r.db).
		Model(&types.Contract{}).
		Where("contract_no LIKE ?", base+"%").
		Order("contract_no DESC").
		Limit(1).
		Pluck("contract_no", &last).Error
	if err != nil {
		return "", err
	}
	run := 0
	if len(last) > 0 {
		run = billing.ContractRun(last[0])
	}
	return billing.FormatContractNo(contractType, day, run+1), nil
}

func (r *contractRepo) UpdateFields(dbc dbctx.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return dbc.DB(r.db).Model(&types.Contract{}).Where("id = ?", id).Updates(updates).Error
}
