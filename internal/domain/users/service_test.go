package users

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"adoption-followup/internal/domain/errs"

	"golang.org/x/crypto/bcrypt"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]User
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]User{}}
}

func (r *testRepo) Create(_ context.Context, u User) error {
	for _, x := range r.byID {
		if x.Name == u.Name {
			return errs.ErrConflict
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, errs.NotFound("user")
	}
	return u, nil
}

func (r *testRepo) GetByName(_ context.Context, name string) (User, error) {
	for _, u := range r.byID {
		if u.Name == name {
			return u, nil
		}
	}
	return User{}, errs.NotFound("user")
}

func (r *testRepo) List(_ context.Context, p Page) ([]User, error) {
	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if p.Skip >= len(out) {
		return []User{}, nil
	}
	out = out[p.Skip:]
	if p.Limit > 0 && p.Limit < len(out) {
		out = out[:p.Limit]
	}
	return out, nil
}

func (r *testRepo) Update(_ context.Context, u User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return errs.NotFound("user")
	}
	for _, x := range r.byID {
		if x.ID != u.ID && x.Name == u.Name {
			return errs.ErrConflict
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return errs.NotFound("user")
	}
	delete(r.byID, id)
	return nil
}

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo, BcryptHasher{Cost: bcrypt.MinCost})
	fixed := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	return svc, repo
}

// -------------------------
// Tests
// -------------------------

func TestRegister_DefaultsToRegularAndHashes(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "  ana ", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Name != "ana" || u.Role != RoleRegular {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.PasswordHash == "s3cret" || u.PasswordHash == "" {
		t.Fatalf("password was not hashed")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []RegisterInput{
		{Name: "", Password: "x"},
		{Name: "ana", Password: ""},
		{Name: "ana", Password: "x", Role: "root"},
	}
	for _, in := range cases {
		if _, err := svc.Register(ctx, in); !errors.Is(err, errs.ErrInvalidInput) {
			t.Fatalf("Register(%+v) expected invalid input, got %v", in, err)
		}
	}
}

func TestRegister_DuplicateNameConflicts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "ana", Password: "x"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Name: "ana", Password: "y"})
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	want, err := svc.Register(ctx, RegisterInput{Name: "ana", Password: "s3cret", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := svc.Authenticate(ctx, "ana", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("expected %s, got %s", want.ID, got.ID)
	}

	if _, err := svc.Authenticate(ctx, "ana", "wrong"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("wrong password: expected unauthorized, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "s3cret"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("unknown user: expected unauthorized, got %v", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, _ := svc.Register(ctx, RegisterInput{Name: "ana", Password: "old"})

	role := RoleAdmin
	updated, err := svc.Update(ctx, u.ID, UpdateInput{Role: &role})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Role != RoleAdmin || updated.Name != "ana" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if updated.PasswordHash != u.PasswordHash {
		t.Fatalf("password hash changed without password in input")
	}

	pw := "new"
	if _, err := svc.Update(ctx, u.ID, UpdateInput{Password: &pw}); err != nil {
		t.Fatalf("Update password: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ana", "new"); err != nil {
		t.Fatalf("Authenticate with new password: %v", err)
	}

	bad := Role("root")
	if _, err := svc.Update(ctx, u.ID, UpdateInput{Role: &bad}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected invalid role, got %v", err)
	}
	if _, err := svc.Update(ctx, "missing", UpdateInput{}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	u, created, err := svc.EnsureAdmin(ctx, "admin", "admin123")
	if err != nil || !created {
		t.Fatalf("first EnsureAdmin: created=%v err=%v", created, err)
	}
	if u.Role != RoleAdmin {
		t.Fatalf("expected admin role, got %s", u.Role)
	}

	again, created, err := svc.EnsureAdmin(ctx, "admin", "other")
	if err != nil || created {
		t.Fatalf("second EnsureAdmin: created=%v err=%v", created, err)
	}
	if again.ID != u.ID || len(repo.byID) != 1 {
		t.Fatalf("EnsureAdmin created a duplicate")
	}
}

func TestExists(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u, _ := svc.Register(ctx, RegisterInput{Name: "ana", Password: "x"})

	if ok, err := svc.Exists(ctx, u.ID); err != nil || !ok {
		t.Fatalf("Exists(existing) = %v, %v", ok, err)
	}
	if ok, err := svc.Exists(ctx, "missing"); err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}
}
