package constants

const (
	Admin  = "admin"
	Client = "client"
)

// ValidRoles is the set of roles a session user can carry.
var ValidRoles = []string{Client, Admin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
