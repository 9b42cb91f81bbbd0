package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"adoption-followup/internal/domain/errs"
	"adoption-followup/internal/domain/users"
)

type usersRepo struct {
	s *Store
}

const userColumns = `id, name, password_hash, role, created_at, updated_at`

func (r usersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.s.db.ExecContext(ctx, r.s.q(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`), u.ID, u.Name, u.PasswordHash, string(u.Role), utc(u.CreatedAt), utc(u.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return errs.ErrConflict
		}
		return errs.Persistence("insert user", err)
	}
	return nil
}

func (r usersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	row := r.s.db.QueryRowContext(ctx, r.s.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	return scanUser(row)
}

func (r usersRepo) GetByName(ctx context.Context, name string) (users.User, error) {
	row := r.s.db.QueryRowContext(ctx, r.s.q(`SELECT `+userColumns+` FROM users WHERE name = ?`), name)
	return scanUser(row)
}

func (r usersRepo) List(ctx context.Context, p users.Page) ([]users.User, error) {
	clause, args := pageClause(r.s.dialect, p.Skip, p.Limit)
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id` + clause

	rows, err := r.s.db.QueryContext(ctx, r.s.q(query), args...)
	if err != nil {
		return nil, errs.Persistence("list users", err)
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("list users", err)
	}
	return out, nil
}

func (r usersRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.s.db.ExecContext(ctx, r.s.q(`
		UPDATE users
		SET name = ?, password_hash = ?, role = ?, updated_at = ?
		WHERE id = ?
	`), u.Name, u.PasswordHash, string(u.Role), utc(u.UpdatedAt), u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.ErrConflict
		}
		return errs.Persistence("update user", err)
	}
	return mustAffect(res, errs.NotFound("user"))
}

// Delete limpia responsible_user_id en la misma transacción (no depende de que el FK esté activo).
func (r usersRepo) Delete(ctx context.Context, id string) error {
	err := r.s.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.s.q(`UPDATE animals SET responsible_user_id = NULL WHERE responsible_user_id = ?`), id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, r.s.q(`DELETE FROM users WHERE id = ?`), id)
		if err != nil {
			return err
		}
		return mustAffect(res, errs.NotFound("user"))
	})
	return errs.Persistence("delete user", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (users.User, error) {
	var (
		u    users.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, errs.NotFound("user")
	}
	if err != nil {
		return users.User{}, errs.Persistence("scan user", err)
	}
	u.Role = users.Role(role)
	u.CreatedAt = utc(u.CreatedAt)
	u.UpdatedAt = utc(u.UpdatedAt)
	return u, nil
}

// pageClause arma LIMIT/OFFSET. limit <= 0 = sin límite (SQLite exige LIMIT para usar OFFSET).
func pageClause(d Dialect, skip, limit int) (string, []any) {
	switch {
	case limit > 0:
		return ` LIMIT ? OFFSET ?`, []any{limit, max(skip, 0)}
	case skip > 0 && d == SQLite:
		return ` LIMIT -1 OFFSET ?`, []any{skip}
	case skip > 0:
		return ` OFFSET ?`, []any{skip}
	default:
		return "", nil
	}
}
