package users

import "context"

type Repository interface {
	// Create devuelve errs.ErrConflict si el nombre ya existe.
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByName(ctx context.Context, name string) (User, error)
	List(ctx context.Context, p Page) ([]User, error)
	Update(ctx context.Context, u User) error
	// Delete deja sin responsable a los animales que apuntaban al usuario.
	Delete(ctx context.Context, id string) error
}
