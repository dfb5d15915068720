package user

import "time"

const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)

type Tenant struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	FirstName    string `gorm:"column:first_name;not null" json:"first_name"`
	LastName     string `gorm:"column:last_name;not null" json:"last_name"`
	Phone        string `gorm:"column:phone" json:"phone"`
	Email        string `gorm:"column:email" json:"email,omitempty"`
	IDCardNumber string `gorm:"column:id_card_number;uniqueIndex;not null" json:"id_card_number"`
	Status       string `gorm:"column:status;not null;index" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Tenant) TableName() string { return "tenant" }
