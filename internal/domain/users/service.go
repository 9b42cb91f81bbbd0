package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"adoption-followup/internal/domain/errs"

	"github.com/google/uuid"
)

type Service struct {
	repo   Repository
	hasher PasswordHasher
	now    func() time.Time
}

func NewService(repo Repository, hasher PasswordHasher) *Service {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Service{
		repo:   repo,
		hasher: hasher,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Password string
	Role     Role
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return User{}, errs.Invalid("name is required")
	}
	if in.Password == "" {
		return User{}, errs.Invalid("password is required")
	}
	role := in.Role
	if role == "" {
		role = RoleRegular
	}
	if !role.Valid() {
		return User{}, errs.Invalid("role must be one of [admin regular]")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return User{}, fmt.Errorf("user name already registered: %w", errs.ErrConflict)
		}
		return User{}, err
	}
	return u, nil
}

// Authenticate valida nombre + password. Cualquier fallo de credenciales es ErrUnauthorized
// (no se distingue usuario inexistente de password incorrecta).
func (s *Service) Authenticate(ctx context.Context, name, password string) (User, error) {
	u, err := s.repo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return User{}, errs.ErrUnauthorized
		}
		return User{}, err
	}
	ok, err := s.hasher.Compare(u.PasswordHash, password)
	if err != nil || !ok {
		return User{}, errs.ErrUnauthorized
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// Exists lo usa animals para validar el responsable.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) List(ctx context.Context, p Page) ([]User, error) {
	return s.repo.List(ctx, p)
}

// UpdateInput: nil = no tocar.
type UpdateInput struct {
	Name     *string
	Password *string
	Role     *Role
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return User{}, errs.Invalid("name must not be empty")
		}
		u.Name = name
	}
	if in.Password != nil {
		if *in.Password == "" {
			return User{}, errs.Invalid("password must not be empty")
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return User{}, errs.Invalid("role must be one of [admin regular]")
		}
		u.Role = *in.Role
	}

	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return User{}, fmt.Errorf("user name already registered: %w", errs.ErrConflict)
		}
		return User{}, err
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// EnsureAdmin crea el admin inicial si no existe ningún usuario con ese nombre.
// created=false si ya estaba; no se le cambia la password.
func (s *Service) EnsureAdmin(ctx context.Context, name, password string) (u User, created bool, err error) {
	existing, err := s.repo.GetByName(ctx, strings.TrimSpace(name))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return User{}, false, err
	}
	u, err = s.Register(ctx, RegisterInput{Name: name, Password: password, Role: RoleAdmin})
	if err != nil {
		return User{}, false, err
	}
	return u, true, nil
}
