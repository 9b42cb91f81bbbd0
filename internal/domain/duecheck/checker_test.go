package duecheck

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"adoption-followup/internal/adapters/storage/memory"
	"adoption-followup/internal/domain/animals"
	"adoption-followup/internal/domain/forms"
	"adoption-followup/internal/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *memory.Store
	checker *Checker
	forms   *forms.Service
	now     time.Time
}

func newFixture(t *testing.T, reg prometheus.Registerer) *fixture {
	t.Helper()
	st := memory.NewStore()
	fx := &fixture{store: st, now: date(2025, 10, 1)}

	fx.checker = NewChecker(st.Animals(), st.Forms(), logger.Nop(), NewMetrics(reg))
	fx.checker.now = func() time.Time { return fx.now }
	fx.checker.pageSize = 2

	fx.forms = forms.NewService(st.Forms(), st.Animals())
	return fx
}

func (fx *fixture) addAnimal(t *testing.T, id string, period int, lastSent *time.Time) {
	t.Helper()
	a := animals.Animal{
		ID:                   id,
		Name:                 id,
		FormGenerationPeriod: period,
		LastFormSentDate:     lastSent,
		CreatedAt:            fx.now,
		UpdatedAt:            fx.now,
	}
	require.NoError(t, fx.store.Animals().Create(context.Background(), a))
}

func (fx *fixture) formsOf(t *testing.T, animalID string) []forms.Form {
	t.Helper()
	items, err := fx.store.Forms().ListByAnimal(context.Background(), animalID)
	require.NoError(t, err)
	return items
}

func TestRun_NeverSentCreatesExactlyOne(t *testing.T) {
	fx := newFixture(t, nil)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		fx.addAnimal(t, id, 3, nil)
	}

	res, err := fx.checker.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Checked)
	assert.Equal(t, 5, res.Created)
	assert.Len(t, res.Forms, 5)

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		items := fx.formsOf(t, id)
		require.Len(t, items, 1, id)
		assert.False(t, items[0].IsSent)
	}

	// Segunda corrida inmediata: ya hay un pendiente por animal.
	res, err = fx.checker.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 5, res.Skipped)
}

func TestRun_SkipsNonPositivePeriod(t *testing.T) {
	fx := newFixture(t, nil)
	fx.addAnimal(t, "a", 0, nil)

	res, err := fx.checker.Run(context.Background(), TriggerTimer)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Empty(t, fx.formsOf(t, "a"))
}

func TestRun_RespectsDueDate(t *testing.T) {
	fx := newFixture(t, nil)
	sent := date(2025, 10, 15)
	fx.addAnimal(t, "a", 3, &sent)

	fx.now = date(2026, 1, 14)
	res, err := fx.checker.Run(context.Background(), TriggerTimer)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)

	fx.now = date(2026, 1, 15)
	res, err = fx.checker.Run(context.Background(), TriggerTimer)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
}

// Escenario completo: período 3, primer form, envío el 2025-10-15, nuevo form recién el 2026-01-15.
func TestRun_FullLifecycleScenario(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	fx.addAnimal(t, "milo", 3, nil)

	res, err := fx.checker.Run(ctx, TriggerTimer)
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)
	first := res.Forms[0]

	sentAt := date(2025, 10, 15)
	fx.forms.SetClock(func() time.Time { return sentAt })
	yes := true
	sent, err := fx.forms.UpdateStatus(ctx, first.ID, forms.StatusUpdate{IsSent: &yes})
	require.NoError(t, err)
	assert.Equal(t, date(2025, 10, 22), *sent.ControlDueDate)

	a, err := fx.store.Animals().GetByID(ctx, "milo")
	require.NoError(t, err)
	require.NotNil(t, a.LastFormSentDate)
	assert.Equal(t, sentAt, *a.LastFormSentDate)

	fx.now = date(2026, 1, 1)
	res, err = fx.checker.Run(ctx, TriggerTimer)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)

	fx.now = date(2026, 1, 15)
	res, err = fx.checker.Run(ctx, TriggerTimer)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Len(t, fx.formsOf(t, "milo"), 2)

	// El nuevo form no toca last_form_sent_date hasta que se envíe.
	a, _ = fx.store.Animals().GetByID(ctx, "milo")
	assert.Equal(t, sentAt, *a.LastFormSentDate)
	assert.False(t, a.IsSent)
}

func TestRun_ConcurrentRunsDoNotDuplicate(t *testing.T) {
	fx := newFixture(t, nil)
	for _, id := range []string{"a", "b", "c"} {
		fx.addAnimal(t, id, 1, nil)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = fx.checker.Run(context.Background(), TriggerManual)
		}()
	}
	wg.Wait()

	for _, id := range []string{"a", "b", "c"} {
		assert.Len(t, fx.formsOf(t, id), 1, id)
	}
}

// deletingLister borra el primer animal de la primera página apenas la devuelve.
type deletingLister struct {
	animals.Repository
	deleted string
}

func (l *deletingLister) List(ctx context.Context, f animals.ListFilter) ([]animals.Animal, error) {
	page, err := l.Repository.List(ctx, f)
	if err == nil && l.deleted == "" && len(page) > 0 {
		l.deleted = page[0].ID
		if err := l.Repository.Delete(ctx, l.deleted); err != nil {
			return nil, err
		}
	}
	return page, err
}

func TestRun_DeletionMidRunDoesNotSkipLiveAnimals(t *testing.T) {
	fx := newFixture(t, nil)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		fx.addAnimal(t, id, 1, nil)
	}

	lister := &deletingLister{Repository: fx.store.Animals()}
	c := NewChecker(lister, fx.store.Forms(), nil, nil)
	c.now = func() time.Time { return fx.now }
	c.pageSize = 2

	res, err := c.Run(context.Background(), TriggerTimer)
	require.NoError(t, err)
	assert.Equal(t, "a", lister.deleted)
	assert.Equal(t, 5, res.Checked)
	assert.Equal(t, 4, res.Created)
	for _, id := range []string{"b", "c", "d", "e"} {
		assert.Len(t, fx.formsOf(t, id), 1, id)
	}
}

// hookedAnimals corre during con el lock de UpdateFunc tomado.
type hookedAnimals struct {
	animals.Repository
	during func()
}

func (h hookedAnimals) UpdateFunc(ctx context.Context, id string, fn func(animals.Animal) (animals.Animal, error)) (animals.Animal, error) {
	return h.Repository.UpdateFunc(ctx, id, func(a animals.Animal) (animals.Animal, error) {
		h.during()
		return fn(a)
	})
}

// Un envío de formulario en paralelo a la edición del animal no se pierde,
// y el chequeo siguiente no genera un segundo formulario.
func TestAnimalUpdate_KeepsConcurrentFormSend(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, fx.store.Animals().Create(ctx, animals.Animal{
		ID:                   "milo",
		Name:                 "Milo",
		OwnerName:            "Ana",
		OwnerContactNumber:   "555-0101",
		OwnerContactEmail:    "ana@example.com",
		FormGenerationPeriod: 3,
		CreatedAt:            fx.now,
		UpdatedAt:            fx.now,
	}))

	res, err := fx.checker.Run(ctx, TriggerTimer)
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)
	formID := res.Forms[0].ID

	fx.forms.SetClock(func() time.Time { return fx.now })
	yes := true
	sent := make(chan error, 1)
	var once sync.Once
	svc := animals.NewService(hookedAnimals{
		Repository: fx.store.Animals(),
		during: func() {
			once.Do(func() {
				go func() {
					_, err := fx.forms.UpdateStatus(ctx, formID, forms.StatusUpdate{IsSent: &yes})
					sent <- err
				}()
			})
		},
	}, nil)

	name := "Milo II"
	_, err = svc.Update(ctx, "milo", animals.UpdateInput{Name: &name})
	require.NoError(t, err)
	require.NoError(t, <-sent)

	a, err := fx.store.Animals().GetByID(ctx, "milo")
	require.NoError(t, err)
	assert.Equal(t, "Milo II", a.Name)
	assert.True(t, a.IsSent)
	require.NotNil(t, a.LastFormSentDate)

	fx.now = fx.now.AddDate(0, 0, 1)
	res, err = fx.checker.Run(ctx, TriggerTimer)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Len(t, fx.formsOf(t, "milo"), 1)
}

// failingStore falla para un animal puntual y delega el resto.
type failingStore struct {
	forms.Store
	failFor string
}

func (s failingStore) WithinAnimal(ctx context.Context, animalID string, fn func(context.Context, forms.Tx) error) error {
	if animalID == s.failFor {
		return errors.New("disk full")
	}
	return s.Store.WithinAnimal(ctx, animalID, fn)
}

func TestRun_IsolatesPerAnimalFailures(t *testing.T) {
	st := memory.NewStore()
	base := date(2025, 10, 1)
	for i, id := range []string{"a", "b", "c"} {
		a := animals.Animal{ID: id, Name: id, FormGenerationPeriod: 1, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, st.Animals().Create(context.Background(), a))
	}

	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf})
	reg := prometheus.NewRegistry()
	c := NewChecker(st.Animals(), failingStore{Store: st.Forms(), failFor: "b"}, log, NewMetrics(reg))

	res, err := c.Run(context.Background(), TriggerTimer)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Checked)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, buf.String(), `"animal_id":"b"`)

	assert.Equal(t, 1.0, counterValue(t, reg, "duecheck_failures_total"))
	assert.Equal(t, 2.0, counterValue(t, reg, "duecheck_forms_created_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "duecheck_runs_total"))
}

type failingLister struct{}

func (failingLister) List(context.Context, animals.ListFilter) ([]animals.Animal, error) {
	return nil, errors.New("db down")
}

func TestRun_ListFailureIsReturned(t *testing.T) {
	st := memory.NewStore()
	c := NewChecker(failingLister{}, st.Forms(), nil, nil)
	_, err := c.Run(context.Background(), TriggerManual)
	assert.Error(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	fx := newFixture(t, nil)
	fx.addAnimal(t, "a", 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fx.checker.Run(ctx, TriggerTimer)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fx.formsOf(t, "a"))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}
