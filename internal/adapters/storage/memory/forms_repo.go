package memory

import (
	"context"
	"strings"
	"time"

	"adoption-followup/internal/domain/animals"
	"adoption-followup/internal/domain/errs"
	"adoption-followup/internal/domain/forms"
)

type formsStore struct {
	s *Store
}

func (r formsStore) GetByID(ctx context.Context, id string) (forms.Form, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.forms[id]
	if !ok {
		return forms.Form{}, errs.NotFound("form")
	}
	return f, nil
}

func (r formsStore) ListByAnimal(ctx context.Context, animalID string) ([]forms.Form, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.formsOf(animalID), nil
}

func (r formsStore) ListByIDs(ctx context.Context, ids []string) ([]forms.Form, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]forms.Form, 0, len(ids))
	for _, id := range ids {
		if f, ok := r.s.forms[id]; ok {
			out = append(out, f)
		}
	}
	sortForms(out)
	return out, nil
}

func (r formsStore) List(ctx context.Context, lf forms.ListFilter) ([]forms.Form, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]forms.Form, 0)
	for _, f := range r.s.forms {
		if lf.Status.Matches(f, lf.Now) {
			out = append(out, f)
		}
	}
	sortForms(out)
	return page(out, lf.Skip, lf.Limit), nil
}

// WithinAnimal toma el lock de escritura de todo el store mientras corre fn.
// Los cambios van a un overlay y se aplican solo si fn no devuelve error.
// fn no debe llamar a otros métodos del Store (solo a tx).
func (r formsStore) WithinAnimal(ctx context.Context, animalID string, fn func(ctx context.Context, tx forms.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.animals[animalID]; !ok {
		return errs.NotFound("animal")
	}

	tx := &memTx{
		s:       r.s,
		animals: map[string]animals.Animal{},
		forms:   map[string]forms.Form{},
		deleted: map[string]struct{}{},
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) formsOf(animalID string) []forms.Form {
	out := make([]forms.Form, 0)
	for _, f := range s.forms {
		if f.AnimalID == animalID {
			out = append(out, f)
		}
	}
	sortForms(out)
	return out
}

func sortForms(items []forms.Form) {
	byCreated(items, func(f forms.Form) time.Time { return f.CreatedDate }, func(f forms.Form) string { return f.ID })
}

// memTx lee primero del overlay y después del store base. Corre con s.mu tomado.
type memTx struct {
	s       *Store
	animals map[string]animals.Animal
	forms   map[string]forms.Form
	deleted map[string]struct{}
}

func (t *memTx) GetAnimal(ctx context.Context, id string) (animals.Animal, error) {
	if a, ok := t.animals[id]; ok {
		return a, nil
	}
	a, ok := t.s.animals[id]
	if !ok {
		return animals.Animal{}, errs.NotFound("animal")
	}
	return a, nil
}

func (t *memTx) UpdateAnimal(ctx context.Context, a animals.Animal) error {
	if _, err := t.GetAnimal(ctx, a.ID); err != nil {
		return err
	}
	t.animals[a.ID] = a
	return nil
}

func (t *memTx) GetForm(ctx context.Context, id string) (forms.Form, error) {
	if _, gone := t.deleted[id]; gone {
		return forms.Form{}, errs.NotFound("form")
	}
	if f, ok := t.forms[id]; ok {
		return f, nil
	}
	f, ok := t.s.forms[id]
	if !ok {
		return forms.Form{}, errs.NotFound("form")
	}
	return f, nil
}

func (t *memTx) ListByAnimal(ctx context.Context, animalID string) ([]forms.Form, error) {
	merged := map[string]forms.Form{}
	for id, f := range t.s.forms {
		if f.AnimalID == animalID {
			merged[id] = f
		}
	}
	for id, f := range t.forms {
		if f.AnimalID == animalID {
			merged[id] = f
		}
	}
	out := make([]forms.Form, 0, len(merged))
	for id, f := range merged {
		if _, gone := t.deleted[id]; gone {
			continue
		}
		out = append(out, f)
	}
	sortForms(out)
	return out, nil
}

func (t *memTx) CreateForm(ctx context.Context, f forms.Form) error {
	if strings.TrimSpace(f.ID) == "" {
		return errs.Invalid("form id required")
	}
	if _, err := t.GetAnimal(ctx, f.AnimalID); err != nil {
		return err
	}
	if _, err := t.GetForm(ctx, f.ID); err == nil {
		return errs.ErrConflict
	}
	delete(t.deleted, f.ID)
	t.forms[f.ID] = f
	return nil
}

func (t *memTx) UpdateForm(ctx context.Context, f forms.Form) error {
	if _, err := t.GetForm(ctx, f.ID); err != nil {
		return err
	}
	t.forms[f.ID] = f
	return nil
}

func (t *memTx) DeleteForm(ctx context.Context, id string) error {
	if _, err := t.GetForm(ctx, id); err != nil {
		return err
	}
	delete(t.forms, id)
	t.deleted[id] = struct{}{}
	return nil
}

func (t *memTx) commit() {
	for id := range t.deleted {
		delete(t.s.forms, id)
	}
	for id, f := range t.forms {
		t.s.forms[id] = f
	}
	for id, a := range t.animals {
		t.s.animals[id] = a
	}
}
