package billing

import "time"

const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentRejected = "rejected"
)

// Outcomes of reading a payment slip.
const (
	SlipVerified   = "verified"
	SlipMismatch   = "mismatch"
	SlipUnreadable = "unreadable"
	SlipError      = "error"
)

type Payment struct {
	ID         uint `gorm:"primaryKey" json:"payment_id"`
	TenantID   uint `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	ContractID uint `gorm:"column:contract_id;not null;index" json:"contract_id"`
	UserID     uint `gorm:"column:user_id;not null;index" json:"user_id"`

	BankName        string  `gorm:"column:bank_name;size:255" json:"bank_name"`
	ReferenceNumber string  `gorm:"column:reference_number;size:255;not null" json:"reference_number"`
	AmountPaid      float64 `gorm:"column:amount_paid;not null" json:"amount_paid"`
	PayerName       string  `gorm:"column:payer_name;size:255" json:"payer_name"`
	SlipImageURL    string  `gorm:"column:slip_image_url;size:255" json:"slip_image_url"`

	SlipStatus string `gorm:"column:slip_status;not null" json:"slip_status"`
	SlipRemark string `gorm:"column:slip_remark;type:text" json:"slip_remark"`

	Status    string    `gorm:"column:payment_status;not null;index" json:"payment_status"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Payment) TableName() string { return "payment" }

// AdminPaymentView is one row of the admin payment list.
type AdminPaymentView struct {
	Payment
	TenantName string `json:"tenant_name"`
	RoomNumber string `json:"room_no"`
}
