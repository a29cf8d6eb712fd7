package auth

import "time"

// Roles carried in access tokens.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleStaff   = "staff"
)

// Config drives token validation.
type Config struct {
	Secret   string
	TokenTTL time.Duration
}

// Claims are extracted from the JWT token.
type Claims struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}
