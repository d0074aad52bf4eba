package tourdesk

// IsValid checks if the role is one of the seeded lookup-table roles
func (r RoleName) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	default:
		return false
	}
}

// IsSuperuser reports whether the role grants operator/guide management
func (r RoleName) IsSuperuser() bool {
	return r == RoleAdmin
}

// IsValid checks if the status is one of the seeded lookup-table statuses
func (s StatusName) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}

// GetAllRoles returns the seeded roles in privilege order
func GetAllRoles() []RoleName {
	return []RoleName{
		RoleAdmin,
		RoleUser,
		RoleGuest,
	}
}

// ParseRole safely parses a string into a RoleName
func ParseRole(roleStr string) (RoleName, bool) {
	role := RoleName(roleStr)
	return role, role.IsValid()
}

// ParseStatus safely parses a string into a StatusName
func ParseStatus(statusStr string) (StatusName, bool) {
	status := StatusName(statusStr)
	return status, status.IsValid()
}
