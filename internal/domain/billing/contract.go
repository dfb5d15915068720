package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	ContractTypeDeposit   = "deposit"
	ContractTypeRent      = "rent"
	ContractTypeExtension = "extension"
	ContractTypeCancel    = "cancel"
)

const ContractActive = "active"

// Deposit lifecycle on a contract.
const (
	DepositPending       = "pending"
	DepositPendingReview = "pending_review"
	DepositPaid          = "paid"
)

// contractPrefixes maps a contract type to its document number prefix.
var contractPrefixes = map[string]string{
	ContractTypeDeposit:   "DEP",
	ContractTypeRent:      "CTR",
	ContractTypeExtension: "CTR-REN",
	ContractTypeCancel:    "CTR-CXL",
}

// ContractPrefix returns the number prefix for contractType, "CTR" when unknown.
func ContractPrefix(contractType string) string {
	if p, ok := contractPrefixes[contractType]; ok {
		return p
	}
	return "CTR"
}

// ContractNoBase is the per-day part shared by every number of one type,
// e.g. "DEP-20251204-".
func ContractNoBase(contractType string, day time.Time) string {
	return ContractPrefix(contractType) + "-" + day.Format("20060102") + "-"
}

// FormatContractNo renders [PREFIX]-YYYYMMDD-NNNN.
func FormatContractNo(contractType string, day time.Time, run int) string {
	return fmt.Sprintf("%s%04d", ContractNoBase(contractType, day), run)
}

// ContractRun extracts the trailing run number; 0 when it is not numeric.
func ContractRun(no string) int {
	i := strings.LastIndexByte(no, '-')
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(no[i+1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

type Contract struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	ContractNo   string `gorm:"column:contract_no;size:32;uniqueIndex" json:"contract_no"`
	ContractType string `gorm:"column:contract_type;not null;index" json:"contract_type"`

	TenantID  uint `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	RoomID    uint `gorm:"column:room_id;not null;index" json:"room_id"`
	BookingID uint `gorm:"column:booking_id;index" json:"booking_id"`
	UserID    uint `gorm:"column:user_id;index" json:"user_id"`

	StartDate   time.Time  `gorm:"column:start_date;not null" json:"start_date"`
	EndDate     *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`
	MonthlyRent float64    `gorm:"column:monthly_rent;not null" json:"monthly_rent"`

	DepositAmount  float64    `gorm:"column:deposit_amount;not null" json:"deposit_amount"`
	DepositStatus  string     `gorm:"column:deposit_status;not null;index" json:"deposit_status"`
	DepositDueDate *time.Time `gorm:"column:deposit_due_date" json:"deposit_due_date,omitempty"`
	DepositPaidAt  *time.Time `gorm:"column:deposit_paid_at" json:"deposit_paid_at,omitempty"`
	DepositSlipURL string     `gorm:"column:deposit_slip_url;size:255" json:"deposit_slip_url,omitempty"`

	IDImageURL   string `gorm:"column:id_image_url;size:255" json:"id_image_url,omitempty"`
	ContractText string `gorm:"column:contract_text;type:text" json:"contract_text,omitempty"`

	// Screening details carried over from the booking (AI score and status).
	Screening datatypes.JSON `gorm:"column:screening" json:"screening,omitempty"`

	Status    string    `gorm:"column:status;not null;index" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Contract) TableName() string { return "contract" }
