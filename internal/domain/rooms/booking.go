package rooms

import "time"

const (
	BookingPending  = "pending"
	BookingApproved = "approved"
	BookingRejected = "rejected"
)

// Outcomes of the automated ID card check.
const (
	AIStatusPending = "pending"
	AIStatusPass    = "pass"
	AIStatusWarning = "warning"
	AIStatusFail    = "fail"
	AIStatusError   = "error"
)

const (
	DefaultLeaseTermMonths = 12
	DepositRentMultiple    = 2
)

type BookingRequest struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	RoomID uint `gorm:"column:room_id;not null;index" json:"room_id"`
	UserID uint `gorm:"column:user_id;not null;index" json:"user_id"`

	FirstName    string `gorm:"column:first_name;not null" json:"first_name"`
	LastName     string `gorm:"column:last_name;not null" json:"last_name"`
	Phone        string `gorm:"column:phone" json:"phone"`
	IDCardNumber string `gorm:"column:id_card_number;not null;index" json:"id_card_number"`

	LeaseStartDate    time.Time `gorm:"column:lease_start_date;not null" json:"lease_start_date"`
	LeaseTermMonths   int       `gorm:"column:lease_term_months;not null" json:"lease_term_months"`
	AgreedMonthlyRent float64   `gorm:"column:agreed_monthly_rent;not null" json:"agreed_monthly_rent"`
	DepositAmount     float64   `gorm:"column:deposit_amount;not null" json:"deposit_amount"`

	IDImageURL   string  `gorm:"column:id_image_url" json:"id_image_url"`
	AIStatus     string  `gorm:"column:ai_status;not null" json:"ai_status"`
	AIConfidence float64 `gorm:"column:ai_confidence" json:"ai_confidence"`
	AIRemark     string  `gorm:"column:ai_remark;type:text" json:"ai_remark"`

	Status    string    `gorm:"column:status;not null;index" json:"status"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (BookingRequest) TableName() string { return "booking_request" }
