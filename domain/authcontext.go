package domain

// Permission is the coarse access level carried by a credential.
// Levels form a total order: read < write < admin.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionAdmin Permission = "admin"
)

func (p Permission) rank() int {
	switch p {
	case PermissionRead:
		return 0
	case PermissionWrite:
		return 1
	case PermissionAdmin:
		return 2
	default:
		return -1
	}
}

// IsValid reports whether p is one of the known permission levels.
func (p Permission) IsValid() bool {
	return p.rank() >= 0
}

// Allows reports whether p grants at least the required level.
// An unknown permission never allows anything.
func (p Permission) Allows(required Permission) bool {
	if p.rank() < 0 || required.rank() < 0 {
		return false
	}
	return p.rank() >= required.rank()
}

// AuthContext is the resolved principal derived from a validated credential,
// either an OAuth access token or an API token. Every downstream data access
// must be filtered by OrganizationID; this is the tenant-isolation invariant
// the rest of the application depends on.
type AuthContext struct {
	OrganizationID string     `json:"organization_id"`
	UserID         string     `json:"user_id"`
	Permission     Permission `json:"permission"`
}
