package users

import "time"

// Role define el nivel de acceso del usuario.
// @Enum admin, regular
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleRegular Role = "regular"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleRegular }

// User es un voluntario/operador del seguimiento de adopciones.
type User struct {
	ID           string
	Name         string
	PasswordHash string
	Role         Role

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Page pagina listados con skip/limit.
type Page struct {
	Skip  int
	Limit int
}
