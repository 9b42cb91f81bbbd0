package auth

import "time"

const (
	RoleAdmin   = "admin"
	RoleRegular = "regular"
)

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Role   string
}

func (c Claims) IsAdmin() bool { return c.Role == RoleAdmin }

// Token es lo que se entrega al cliente después del login.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}
