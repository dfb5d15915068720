package chat

import (
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
)

// Policy decides which threads a caller may open.
type Policy struct {
	// AllowUnaffiliatedTenants admits tenant-role callers without a recorded
	// tenant affiliation into any thread. Off by default.
	AllowUnaffiliatedTenants bool
}

func (p Policy) Authorize(id user.Identity, tenantID uint) error {
	if tenantID == 0 {
		return apierr.Wrap(apierr.ErrInvalidArgument, "tenant id is required")
	}
	switch id.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleTenant:
		if id.TenantID == nil {
			if p.AllowUnaffiliatedTenants {
				return nil
			}
			return apierr.Wrap(apierr.ErrForbidden, "tenant account is not linked to a room")
		}
		if *id.TenantID != tenantID {
			return apierr.Wrap(apierr.ErrForbidden, "tenant %d may not join thread %d", *id.TenantID, tenantID)
		}
		return nil
	default:
		return apierr.Wrap(apierr.ErrForbidden, "role %q may not use chat", id.Role)
	}
}
