package memory

import (
	"context"
	"errors"
	"strings"
	"time"

	"adoption-followup/internal/domain/animals"
	"adoption-followup/internal/domain/errs"
)

type animalsRepo struct {
	s *Store
}

func (r animalsRepo) Create(ctx context.Context, a animals.Animal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("animal id required")
	}
	if _, exists := r.s.animals[a.ID]; exists {
		return errs.ErrConflict
	}
	r.s.animals[a.ID] = a
	return nil
}

func (r animalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.animals[id]
	if !ok {
		return animals.Animal{}, errs.NotFound("animal")
	}
	return a, nil
}

func (r animalsRepo) List(ctx context.Context, f animals.ListFilter) ([]animals.Animal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]animals.Animal, 0)
	for _, a := range r.s.animals {
		if f.Status.Matches(a) && !f.After.Before(a) {
			out = append(out, a)
		}
	}
	byCreated(out, func(a animals.Animal) time.Time { return a.CreatedAt }, func(a animals.Animal) string { return a.ID })
	return page(out, f.Skip, f.Limit), nil
}

// UpdateFunc corre fn con el lock de escritura del store, el mismo que toma WithinAnimal.
func (r animalsRepo) UpdateFunc(ctx context.Context, id string, fn func(animals.Animal) (animals.Animal, error)) (animals.Animal, error) {
	if err := ctx.Err(); err != nil {
		return animals.Animal{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, exists := r.s.animals[id]
	if !exists {
		return animals.Animal{}, errs.NotFound("animal")
	}
	next, err := fn(cur)
	if err != nil {
		return animals.Animal{}, err
	}
	next.ID = id
	r.s.animals[id] = next
	return next, nil
}

// Delete borra el animal y todos sus formularios.
func (r animalsRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.animals[id]; !exists {
		return errs.NotFound("animal")
	}
	delete(r.s.animals, id)
	for fid, f := range r.s.forms {
		if f.AnimalID == id {
			delete(r.s.forms, fid)
		}
	}
	return nil
}
