package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"adoption-followup/internal/domain/animals"
	"adoption-followup/internal/domain/errs"
	"adoption-followup/internal/domain/forms"
)

type formsStore struct {
	s *Store
}

const formColumns = `id, animal_id, is_sent, is_controlled, need_review,
	created_date, send_date, control_due_date, controlled_date, updated_at`

func (r formsStore) GetByID(ctx context.Context, id string) (forms.Form, error) {
	return getForm(ctx, r.s, r.s.db, id)
}

func (r formsStore) ListByAnimal(ctx context.Context, animalID string) ([]forms.Form, error) {
	return listFormsByAnimal(ctx, r.s, r.s.db, animalID)
}

func (r formsStore) ListByIDs(ctx context.Context, ids []string) ([]forms.Form, error) {
	if len(ids) == 0 {
		return []forms.Form{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	return queryForms(ctx, r.s.db, r.s.q(`
		SELECT `+formColumns+` FROM forms
		WHERE id IN (`+placeholders+`)
		ORDER BY created_date, id
	`), args...)
}

// List filtra en SQL por los flags y en Go por el vencimiento de control,
// así la comparación de fechas no depende de cómo guarda el dialecto los timestamps.
func (r formsStore) List(ctx context.Context, lf forms.ListFilter) ([]forms.Form, error) {
	where, args := formStatusWhere(lf.Status)
	if lf.Status != forms.StatusPendingControl {
		clause, pageArgs := pageClause(r.s.dialect, lf.Skip, lf.Limit)
		return queryForms(ctx, r.s.db, r.s.q(`SELECT `+formColumns+` FROM forms`+where+` ORDER BY created_date, id`+clause), append(args, pageArgs...)...)
	}

	candidates, err := queryForms(ctx, r.s.db, r.s.q(`SELECT `+formColumns+` FROM forms`+where+` ORDER BY created_date, id`), args...)
	if err != nil {
		return nil, err
	}
	out := make([]forms.Form, 0, len(candidates))
	for _, f := range candidates {
		if lf.Status.Matches(f, lf.Now) {
			out = append(out, f)
		}
	}
	return pageSlice(out, lf.Skip, lf.Limit), nil
}

// WithinAnimal abre una transacción y bloquea la fila del animal.
// En SQLite el pool tiene una sola conexión, así que la transacción ya es exclusiva.
func (r formsStore) WithinAnimal(ctx context.Context, animalID string, fn func(ctx context.Context, tx forms.Tx) error) error {
	lock := `SELECT id FROM animals WHERE id = ?`
	if r.s.dialect == Postgres {
		lock += ` FOR UPDATE`
	}

	var fnErr error
	err := r.s.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx, r.s.q(lock), animalID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return errs.NotFound("animal")
		}
		if err != nil {
			return err
		}
		fnErr = fn(ctx, sqlTx{s: r.s, tx: tx})
		return fnErr
	})
	if fnErr != nil && errors.Is(err, fnErr) {
		// El error de fn sale tal cual (el rollback ya se hizo).
		return fnErr
	}
	return errs.Persistence("animal transaction", err)
}

// sqlTx implementa forms.Tx sobre una *sql.Tx abierta.
type sqlTx struct {
	s  *Store
	tx *sql.Tx
}

func (t sqlTx) GetAnimal(ctx context.Context, id string) (animals.Animal, error) {
	return getAnimal(ctx, t.s, t.tx, id)
}

func (t sqlTx) UpdateAnimal(ctx context.Context, a animals.Animal) error {
	return updateAnimal(ctx, t.s, t.tx, a)
}

func (t sqlTx) GetForm(ctx context.Context, id string) (forms.Form, error) {
	return getForm(ctx, t.s, t.tx, id)
}

func (t sqlTx) ListByAnimal(ctx context.Context, animalID string) ([]forms.Form, error) {
	return listFormsByAnimal(ctx, t.s, t.tx, animalID)
}

func (t sqlTx) CreateForm(ctx context.Context, f forms.Form) error {
	if strings.TrimSpace(f.ID) == "" {
		return errs.Invalid("form id required")
	}
	_, err := t.tx.ExecContext(ctx, t.s.q(`
		INSERT INTO forms (`+formColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		f.ID,
		f.AnimalID,
		f.IsSent,
		f.IsControlled,
		f.NeedReview,
		utc(f.CreatedDate),
		nullTime(f.SendDate),
		nullTime(f.ControlDueDate),
		nullTime(f.ControlledDate),
		utc(f.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.ErrConflict
		}
		return errs.Persistence("insert form", err)
	}
	return nil
}

func (t sqlTx) UpdateForm(ctx context.Context, f forms.Form) error {
	res, err := t.tx.ExecContext(ctx, t.s.q(`
		UPDATE forms SET
			is_sent = ?,
			is_controlled = ?,
			need_review = ?,
			send_date = ?,
			control_due_date = ?,
			controlled_date = ?,
			updated_at = ?
		WHERE id = ?
	`),
		f.IsSent,
		f.IsControlled,
		f.NeedReview,
		nullTime(f.SendDate),
		nullTime(f.ControlDueDate),
		nullTime(f.ControlledDate),
		utc(f.UpdatedAt),
		f.ID,
	)
	if err != nil {
		return errs.Persistence("update form", err)
	}
	return mustAffect(res, errs.NotFound("form"))
}

func (t sqlTx) DeleteForm(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, t.s.q(`DELETE FROM forms WHERE id = ?`), id)
	if err != nil {
		return errs.Persistence("delete form", err)
	}
	return mustAffect(res, errs.NotFound("form"))
}

func getForm(ctx context.Context, s *Store, q querier, id string) (forms.Form, error) {
	row := q.QueryRowContext(ctx, s.q(`SELECT `+formColumns+` FROM forms WHERE id = ?`), id)
	return scanForm(row)
}

func listFormsByAnimal(ctx context.Context, s *Store, q querier, animalID string) ([]forms.Form, error) {
	return queryForms(ctx, q, s.q(`
		SELECT `+formColumns+` FROM forms
		WHERE animal_id = ?
		ORDER BY created_date, id
	`), animalID)
}

// queryForms espera la query ya reescrita para el dialecto.
func queryForms(ctx context.Context, q querier, query string, args ...any) ([]forms.Form, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Persistence("list forms", err)
	}
	defer rows.Close()

	out := make([]forms.Form, 0)
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Persistence("list forms", err)
	}
	return out, nil
}

func formStatusWhere(s forms.Status) (string, []any) {
	switch s {
	case forms.StatusNeedReview:
		return ` WHERE need_review = ?`, []any{true}
	case forms.StatusPendingSend:
		return ` WHERE is_sent = ?`, []any{false}
	case forms.StatusPendingControl:
		return ` WHERE is_sent = ? AND is_controlled = ? AND control_due_date IS NOT NULL`, []any{true, false}
	default:
		return "", []any{}
	}
}

func scanForm(row rowScanner) (forms.Form, error) {
	var (
		f            forms.Form
		sendDate     sql.NullTime
		dueDate      sql.NullTime
		controlledAt sql.NullTime
	)
	err := row.Scan(
		&f.ID,
		&f.AnimalID,
		&f.IsSent,
		&f.IsControlled,
		&f.NeedReview,
		&f.CreatedDate,
		&sendDate,
		&dueDate,
		&controlledAt,
		&f.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return forms.Form{}, errs.NotFound("form")
	}
	if err != nil {
		return forms.Form{}, errs.Persistence("scan form", err)
	}
	f.CreatedDate = utc(f.CreatedDate)
	f.SendDate = timePtr(sendDate)
	f.ControlDueDate = timePtr(dueDate)
	f.ControlledDate = timePtr(controlledAt)
	f.UpdatedAt = utc(f.UpdatedAt)
	return f, nil
}

// pageSlice aplica skip/limit sobre resultados ya filtrados en memoria.
func pageSlice(items []forms.Form, skip, limit int) []forms.Form {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []forms.Form{}
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
