package duecheck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adoption-followup/internal/domain/animals"
	"adoption-followup/internal/domain/errs"
	"adoption-followup/internal/domain/forms"
	"adoption-followup/internal/platform/logger"
)

const defaultPageSize = 200

type Trigger string

const (
	TriggerTimer  Trigger = "timer"
	TriggerManual Trigger = "manual"
)

type AnimalLister interface {
	List(ctx context.Context, f animals.ListFilter) ([]animals.Animal, error)
}

// Result resume una corrida completa.
type Result struct {
	Checked int
	Created int
	Skipped int
	Failed  int
	Forms   []forms.Form
}

type Checker struct {
	animals  AnimalLister
	store    forms.Store
	log      logger.Logger
	metrics  *Metrics
	now      func() time.Time
	pageSize int
}

func NewChecker(animals AnimalLister, store forms.Store, log logger.Logger, metrics *Metrics) *Checker {
	return &Checker{
		animals:  animals,
		store:    store,
		log:      logger.OrNop(log).With(map[string]any{"component": "duecheck"}),
		metrics:  metrics,
		now:      time.Now,
		pageSize: defaultPageSize,
	}
}

// Run revisa todos los animales. Un fallo en un animal se loguea y no corta la corrida;
// solo falla si no se puede listar animales o si ctx se cancela.
func (c *Checker) Run(ctx context.Context, trigger Trigger) (Result, error) {
	start := time.Now()
	res := Result{Forms: []forms.Form{}}
	defer func() { c.metrics.observe(trigger, res, time.Since(start)) }()

	// Cursor (created_at, id) y no offset: un animal borrado a mitad de corrida
	// no corre la página siguiente.
	var after *animals.Cursor
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page, err := c.animals.List(ctx, animals.ListFilter{After: after, Limit: c.pageSize})
		if err != nil {
			c.log.Error("list animals failed", map[string]any{"trigger": trigger, "error": err})
			return res, fmt.Errorf("list animals: %w", err)
		}

		for _, a := range page {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			res.Checked++
			f, created, err := c.checkAnimal(ctx, a.ID)
			switch {
			case err != nil:
				res.Failed++
				c.log.Error("due-check failed for animal", map[string]any{"animal_id": a.ID, "error": err})
			case created:
				res.Created++
				res.Forms = append(res.Forms, f)
				c.log.Info("form generated", map[string]any{"animal_id": a.ID, "form_id": f.ID})
			default:
				res.Skipped++
			}
		}

		if len(page) < c.pageSize {
			break
		}
		after = animals.CursorOf(page[len(page)-1])
	}

	c.log.Info("due-check finished", map[string]any{
		"trigger":     trigger,
		"checked":     res.Checked,
		"created":     res.Created,
		"skipped":     res.Skipped,
		"failed":      res.Failed,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return res, nil
}

// checkAnimal reevalúa el animal con su lock tomado: dos corridas simultáneas
// no pueden crear dos formularios para el mismo animal.
func (c *Checker) checkAnimal(ctx context.Context, animalID string) (forms.Form, bool, error) {
	var (
		created forms.Form
		ok      bool
	)
	err := c.store.WithinAnimal(ctx, animalID, func(ctx context.Context, tx forms.Tx) error {
		a, err := tx.GetAnimal(ctx, animalID)
		if err != nil {
			return err
		}
		now := c.now()
		if !IsDue(a, now) {
			return nil
		}

		existing, err := tx.ListByAnimal(ctx, animalID)
		if err != nil {
			return err
		}
		// Un solo formulario sin enviar a la vez.
		if forms.HasPendingSend(existing) {
			return nil
		}

		f := forms.NewForm(animalID, now)
		if err := tx.CreateForm(ctx, f); err != nil {
			return err
		}
		if err := tx.UpdateAnimal(ctx, forms.MirrorOnto(a, f, false, now)); err != nil {
			return err
		}
		created, ok = f, true
		return nil
	})
	if errors.Is(err, errs.ErrNotFound) {
		// Borrado entre el listado y el lock.
		return forms.Form{}, false, nil
	}
	if err != nil {
		return forms.Form{}, false, err
	}
	return created, ok, nil
}
