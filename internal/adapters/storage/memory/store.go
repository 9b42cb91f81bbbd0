// Package memory es el storage en memoria (dev y tests). Un solo Store guarda
// usuarios, animales y formularios para poder hacer cascadas y transacciones por animal.
package memory

import (
	"sort"
	"sync"
	"time"

	"adoption-followup/internal/domain/animals"
	"adoption-followup/internal/domain/forms"
	"adoption-followup/internal/domain/users"
)

type Store struct {
	mu      sync.RWMutex
	users   map[string]users.User
	animals map[string]animals.Animal
	forms   map[string]forms.Form
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]users.User),
		animals: make(map[string]animals.Animal),
		forms:   make(map[string]forms.Form),
	}
}

func (s *Store) Users() users.Repository     { return usersRepo{s: s} }
func (s *Store) Animals() animals.Repository { return animalsRepo{s: s} }
func (s *Store) Forms() forms.Store          { return formsStore{s: s} }

// Close existe para cumplir la misma interfaz que el storage SQL.
func (s *Store) Close() error { return nil }

// page aplica skip/limit sobre una lista ya ordenada. limit <= 0 = sin límite.
func page[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// byCreated ordena por fecha de creación y luego id, para paginar de forma estable.
func byCreated[T any](items []T, created func(T) time.Time, id func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return id(items[i]) < id(items[j])
	})
}
