// Package duecheck decide qué animales necesitan un formulario nuevo y los genera,
// tanto desde el timer como desde el disparo manual de un admin.
package duecheck

import (
	"time"

	"adoption-followup/internal/domain/animals"
)

// AddMonths suma meses de calendario. Si el día no existe en el mes destino
// se recorta al último día (31-ene + 1 mes = 28/29-feb).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	first := time.Date(y, m+time.Month(months), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

// DueAt devuelve cuándo vence el próximo formulario. ok=false si nunca se envió uno.
func DueAt(a animals.Animal) (due time.Time, ok bool) {
	if a.LastFormSentDate == nil {
		return time.Time{}, false
	}
	return AddMonths(*a.LastFormSentDate, a.FormGenerationPeriod), true
}

// IsDue: sin envíos previos siempre vence; si no, vence cuando now >= último envío + período.
// Un período <= 0 nunca vence.
func IsDue(a animals.Animal, now time.Time) bool {
	if a.FormGenerationPeriod <= 0 {
		return false
	}
	due, ok := DueAt(a)
	if !ok {
		return true
	}
	return !now.Before(due)
}
