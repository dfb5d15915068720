package user

// Identity is an authenticated caller, resolved once per connection or request.
type Identity struct {
	UserID   uint   `json:"user_id"`
	Role     string `json:"role"`
	TenantID *uint  `json:"tenant_id,omitempty"`
}

func (i Identity) IsAdmin() bool  { return i.Role == RoleAdmin }
func (i Identity) IsTenant() bool { return i.Role == RoleTenant }
