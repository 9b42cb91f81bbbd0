package memory

import (
	"context"
	"errors"
	"strings"
	"time"

	"adoption-followup/internal/domain/errs"
	"adoption-followup/internal/domain/users"
)

type usersRepo struct {
	s *Store
}

func (r usersRepo) Create(ctx context.Context, u users.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.s.users[u.ID]; exists {
		return errs.ErrConflict
	}
	if r.nameTaken(u.Name, "") {
		return errs.ErrConflict
	}
	r.s.users[u.ID] = u
	return nil
}

func (r usersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return users.User{}, errs.NotFound("user")
	}
	return u, nil
}

func (r usersRepo) GetByName(ctx context.Context, name string) (users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Name == name {
			return u, nil
		}
	}
	return users.User{}, errs.NotFound("user")
}

func (r usersRepo) List(ctx context.Context, p users.Page) ([]users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]users.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	byCreated(out, func(u users.User) time.Time { return u.CreatedAt }, func(u users.User) string { return u.ID })
	return page(out, p.Skip, p.Limit), nil
}

func (r usersRepo) Update(ctx context.Context, u users.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.users[u.ID]; !exists {
		return errs.NotFound("user")
	}
	if r.nameTaken(u.Name, u.ID) {
		return errs.ErrConflict
	}
	r.s.users[u.ID] = u
	return nil
}

// Delete deja sin responsable a sus animales (equivalente a ON DELETE SET NULL).
func (r usersRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.users[id]; !exists {
		return errs.NotFound("user")
	}
	delete(r.s.users, id)
	for aid, a := range r.s.animals {
		if a.ResponsibleUserID == id {
			a.ResponsibleUserID = ""
			r.s.animals[aid] = a
		}
	}
	return nil
}

func (r usersRepo) nameTaken(name, exceptID string) bool {
	for _, x := range r.s.users {
		if x.ID != exceptID && x.Name == name {
			return true
		}
	}
	return false
}
