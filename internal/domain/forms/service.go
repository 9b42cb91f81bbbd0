package forms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"adoption-followup/internal/domain/animals"
	"adoption-followup/internal/domain/errs"
)

// AnimalReader evita depender del servicio completo de animals.
type AnimalReader interface {
	GetByID(ctx context.Context, id string) (animals.Animal, error)
}

type Service struct {
	store   Store
	animals AnimalReader
	now     func() time.Time
}

func NewService(store Store, animals AnimalReader) *Service {
	return &Service{
		store:   store,
		animals: animals,
		now:     time.Now,
	}
}

// SetClock reemplaza el reloj (tests y corridas deterministas).
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create agrega un formulario sin enviar al animal y espeja sus banderas.
func (s *Service) Create(ctx context.Context, animalID string) (Form, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return Form{}, errs.Invalid("animal_id is required")
	}

	var created Form
	err := s.store.WithinAnimal(ctx, animalID, func(ctx context.Context, tx Tx) error {
		a, err := tx.GetAnimal(ctx, animalID)
		if err != nil {
			return err
		}
		now := s.now()
		f := NewForm(animalID, now)
		if err := tx.CreateForm(ctx, f); err != nil {
			return err
		}
		if err := tx.UpdateAnimal(ctx, MirrorOnto(a, f, false, now)); err != nil {
			return err
		}
		created = f
		return nil
	})
	if err != nil {
		return Form{}, err
	}
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Form, error) {
	return s.store.GetByID(ctx, id)
}

// ListByIDs ignora ids inexistentes.
func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]Form, error) {
	clean := make([]string, 0, len(ids))
	seen := map[string]struct{}{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		clean = append(clean, id)
	}
	if len(clean) == 0 {
		return []Form{}, nil
	}
	return s.store.ListByIDs(ctx, clean)
}

func (s *Service) ListByAnimal(ctx context.Context, animalID string) ([]Form, error) {
	if _, err := s.animals.GetByID(ctx, animalID); err != nil {
		return nil, err
	}
	return s.store.ListByAnimal(ctx, animalID)
}

func (s *Service) List(ctx context.Context, status Status, skip, limit int) ([]Form, error) {
	switch status {
	case StatusAny, StatusNeedReview, StatusPendingSend, StatusPendingControl:
	default:
		return nil, errs.Invalid(fmt.Sprintf("unknown status filter %q", status))
	}
	return s.store.List(ctx, ListFilter{Status: status, Now: s.now(), Skip: skip, Limit: limit})
}

// UpdateStatus aplica las reglas de ciclo de vida y espeja el resultado en el animal,
// en la misma transacción.
func (s *Service) UpdateStatus(ctx context.Context, id string, u StatusUpdate) (Form, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Form{}, err
	}

	var updated Form
	err = s.store.WithinAnimal(ctx, current.AnimalID, func(ctx context.Context, tx Tx) error {
		// Releer dentro del lock: otra request pudo cambiarlo.
		f, err := tx.GetForm(ctx, id)
		if err != nil {
			return err
		}
		a, err := tx.GetAnimal(ctx, f.AnimalID)
		if err != nil {
			return err
		}

		now := s.now()
		next, sent := ApplyStatus(f, u, now)
		if err := tx.UpdateForm(ctx, next); err != nil {
			return err
		}
		if err := tx.UpdateAnimal(ctx, MirrorOnto(a, next, sent, now)); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return Form{}, err
	}
	return updated, nil
}

// Delete borra el formulario y recalcula las banderas del animal con los que quedan.
func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return s.store.WithinAnimal(ctx, current.AnimalID, func(ctx context.Context, tx Tx) error {
		if _, err := tx.GetForm(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteForm(ctx, id); err != nil {
			return err
		}
		a, err := tx.GetAnimal(ctx, current.AnimalID)
		if err != nil {
			return err
		}
		remaining, err := tx.ListByAnimal(ctx, current.AnimalID)
		if err != nil {
			return err
		}
		return tx.UpdateAnimal(ctx, Remirror(a, remaining, s.now()))
	})
}
