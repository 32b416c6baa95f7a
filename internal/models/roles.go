package models

const (
	AdminRole     = "admin"
	VolunteerRole = "volunteer"
)

// ValidRole reports whether role is one the session layer understands.
func ValidRole(role string) bool {
	return role == AdminRole || role == VolunteerRole
}
