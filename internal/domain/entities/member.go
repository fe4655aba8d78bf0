package entities

// Member is a resolved identity in the target platform.
type Member struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	RoleIDs     []string `json:"roleIds"`
}

// HasRole reports whether the member already holds the given role.
func (m *Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Role is an entitlement in the target platform.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
