package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"adoption-followup/internal/domain/animals"
	"adoption-followup/internal/domain/errs"
)

type animalsRepo struct {
	s *Store
}

const animalColumns = `id, name, responsible_user_id, owner_name, owner_contact_number, owner_contact_email,
	form_generation_period, last_form_sent_date, is_sent, is_controlled, need_review, created_at, updated_at`

func (r animalsRepo) Create(ctx context.Context, a animals.Animal) error {
	_, err := r.s.db.ExecContext(ctx, r.s.q(`
		INSERT INTO animals (`+animalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		a.ID,
		a.Name,
		nullString(a.ResponsibleUserID),
		a.OwnerName,
		a.OwnerContactNumber,
		a.OwnerContactEmail,
		a.FormGenerationPeriod,
		nullTime(a.LastFormSentDate),
		a.IsSent,
		a.IsControlled,
		a.NeedReview,
		utc(a.CreatedAt),
		utc(a.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.ErrConflict
		}
		return errs.Persistence("insert animal", err)
	}
	return nil
}

func (r animalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	return getAnimal(ctx, r.s, r.s.db, id)
}

func (r animalsRepo) List(ctx context.Context, f animals.ListFilter) ([]animals.Animal, error) {
	where, args := animalWhere(f)
	clause, pageArgs := pageClause(r.s.dialect, f.Skip, f.Limit)
	query := `SELECT ` + animalColumns + ` FROM animals` + where + ` ORDER BY created_at, id` + clause

	rows, err := r.s.db.QueryContext(ctx, r.s.q(query), append(args, pageArgs...)...)
	if err != nil {
		return nil, errs.Persistence("list animals", err)
	}
	defer rows.Close()

	out := make([]animals.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("list animals", err)
	}
	return out, nil
}

// UpdateFunc relee el animal dentro de una transacción con la fila bloqueada
// (FOR UPDATE en Postgres; en SQLite la única conexión ya serializa).
func (r animalsRepo) UpdateFunc(ctx context.Context, id string, fn func(animals.Animal) (animals.Animal, error)) (animals.Animal, error) {
	lock := `SELECT ` + animalColumns + ` FROM animals WHERE id = ?`
	if r.s.dialect == Postgres {
		lock += ` FOR UPDATE`
	}

	var out animals.Animal
	err := r.s.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cur, err := scanAnimal(tx.QueryRowContext(ctx, r.s.q(lock), id))
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		next.ID = id
		if err := updateAnimal(ctx, r.s, tx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return animals.Animal{}, errs.Persistence("update animal", err)
	}
	return out, nil
}

// Delete borra primero los formularios y después el animal, en una transacción.
func (r animalsRepo) Delete(ctx context.Context, id string) error {
	err := r.s.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.s.q(`DELETE FROM forms WHERE animal_id = ?`), id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, r.s.q(`DELETE FROM animals WHERE id = ?`), id)
		if err != nil {
			return err
		}
		return mustAffect(res, errs.NotFound("animal"))
	})
	return errs.Persistence("delete animal", err)
}

func getAnimal(ctx context.Context, s *Store, q querier, id string) (animals.Animal, error) {
	row := q.QueryRowContext(ctx, s.q(`SELECT `+animalColumns+` FROM animals WHERE id = ?`), id)
	return scanAnimal(row)
}

func updateAnimal(ctx context.Context, s *Store, q querier, a animals.Animal) error {
	res, err := q.ExecContext(ctx, s.q(`
		UPDATE animals SET
			name = ?,
			responsible_user_id = ?,
			owner_name = ?,
			owner_contact_number = ?,
			owner_contact_email = ?,
			form_generation_period = ?,
			last_form_sent_date = ?,
			is_sent = ?,
			is_controlled = ?,
			need_review = ?,
			updated_at = ?
		WHERE id = ?
	`),
		a.Name,
		nullString(a.ResponsibleUserID),
		a.OwnerName,
		a.OwnerContactNumber,
		a.OwnerContactEmail,
		a.FormGenerationPeriod,
		nullTime(a.LastFormSentDate),
		a.IsSent,
		a.IsControlled,
		a.NeedReview,
		utc(a.UpdatedAt),
		a.ID,
	)
	if err != nil {
		return errs.Persistence("update animal", err)
	}
	return mustAffect(res, errs.NotFound("animal"))
}

// animalWhere arma el filtro por estado y el cursor (created_at, id).
func animalWhere(f animals.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	switch f.Status {
	case animals.StatusNeedReview:
		conds, args = append(conds, `need_review = ?`), append(args, true)
	case animals.StatusPendingSend:
		conds, args = append(conds, `is_sent = ?`), append(args, false)
	case animals.StatusPendingControl:
		conds, args = append(conds, `is_sent = ? AND is_controlled = ?`), append(args, true, false)
	}
	if f.After != nil {
		conds = append(conds, `(created_at > ? OR (created_at = ? AND id > ?))`)
		args = append(args, utc(f.After.CreatedAt), utc(f.After.CreatedAt), f.After.ID)
	}
	if len(conds) == 0 {
		return "", []any{}
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

func scanAnimal(row rowScanner) (animals.Animal, error) {
	var (
		a           animals.Animal
		responsible sql.NullString
		lastSent    sql.NullTime
	)
	err := row.Scan(
		&a.ID,
		&a.Name,
		&responsible,
		&a.OwnerName,
		&a.OwnerContactNumber,
		&a.OwnerContactEmail,
		&a.FormGenerationPeriod,
		&lastSent,
		&a.IsSent,
		&a.IsControlled,
		&a.NeedReview,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return animals.Animal{}, errs.NotFound("animal")
	}
	if err != nil {
		return animals.Animal{}, errs.Persistence("scan animal", err)
	}
	a.ResponsibleUserID = responsible.String
	a.LastFormSentDate = timePtr(lastSent)
	a.CreatedAt = utc(a.CreatedAt)
	a.UpdatedAt = utc(a.UpdatedAt)
	return a, nil
}
