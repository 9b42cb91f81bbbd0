package forms

import (
	"context"

	"adoption-followup/internal/domain/animals"
)

// Repository cubre las lecturas fuera de transacción.
type Repository interface {
	GetByID(ctx context.Context, id string) (Form, error)
	ListByAnimal(ctx context.Context, animalID string) ([]Form, error)
	ListByIDs(ctx context.Context, ids []string) ([]Form, error)
	List(ctx context.Context, f ListFilter) ([]Form, error)
}

// Tx es la vista transaccional de un animal y sus formularios.
type Tx interface {
	GetAnimal(ctx context.Context, id string) (animals.Animal, error)
	UpdateAnimal(ctx context.Context, a animals.Animal) error

	GetForm(ctx context.Context, id string) (Form, error)
	ListByAnimal(ctx context.Context, animalID string) ([]Form, error)
	CreateForm(ctx context.Context, f Form) error
	UpdateForm(ctx context.Context, f Form) error
	DeleteForm(ctx context.Context, id string) error
}

type Store interface {
	Repository

	// WithinAnimal bloquea el animal (errs.ErrNotFound si no existe) y corre fn en una
	// transacción: todo lo escrito por fn se confirma junto o no se confirma.
	// Dos llamadas para el mismo animal nunca corren a la vez.
	WithinAnimal(ctx context.Context, animalID string, fn func(ctx context.Context, tx Tx) error) error
}
