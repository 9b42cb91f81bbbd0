package animals

import "context"

type Repository interface {
	Create(ctx context.Context, a Animal) error
	GetByID(ctx context.Context, id string) (Animal, error)
	// List ordena por CreatedAt y luego ID.
	List(ctx context.Context, f ListFilter) ([]Animal, error)
	// UpdateFunc relee el animal con su lock tomado (el mismo que usa forms.Store.WithinAnimal),
	// aplica fn y guarda lo que devuelve. Si fn devuelve error no se escribe nada.
	// fn no debe llamar al repositorio.
	UpdateFunc(ctx context.Context, id string, fn func(Animal) (Animal, error)) (Animal, error)
	// Delete borra también todos los formularios del animal.
	Delete(ctx context.Context, id string) error
}
