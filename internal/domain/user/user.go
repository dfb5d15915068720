package user

import "time"

const (
	RoleUser   = "user"
	RoleTenant = "tenant"
	RoleAdmin  = "admin"
)

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"uniqueIndex;not null;column:username" json:"username"`
	Email     string `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Phone     string `gorm:"index;column:phone" json:"phone"`
	Password  string `gorm:"not null;column:password" json:"-"`
	FirstName string `gorm:"column:first_name" json:"first_name"`
	LastName  string `gorm:"column:last_name" json:"last_name"`
	Role      string `gorm:"not null;column:role;index" json:"role"`

	// TenantID is the tenant record the user is affiliated with, set on booking approval.
	TenantID *uint `gorm:"column:tenant_id;index" json:"tenant_id,omitempty"`

	ResetCode          string     `gorm:"column:reset_code" json:"-"`
	ResetCodeExpiresAt *time.Time `gorm:"column:reset_code_expires_at" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }
