package forms

import (
	"sort"
	"time"

	"adoption-followup/internal/domain/animals"
)

// ControlWindow es el plazo para controlar un formulario desde que se envía.
const ControlWindow = 7 * 24 * time.Hour

// StatusUpdate: nil = no tocar.
type StatusUpdate struct {
	IsSent       *bool
	IsControlled *bool
	NeedReview   *bool
}

// ApplyStatus aplica las banderas y estampa fechas solo en la transición false -> true.
// Volver una bandera a false no borra fechas ya registradas.
// sent indica si hubo transición de envío (para actualizar last_form_sent_date del animal).
func ApplyStatus(f Form, u StatusUpdate, now time.Time) (out Form, sent bool) {
	if u.IsSent != nil {
		if *u.IsSent && !f.IsSent {
			sendDate := now
			due := now.Add(ControlWindow)
			f.SendDate = &sendDate
			f.ControlDueDate = &due
			sent = true
		}
		f.IsSent = *u.IsSent
	}

	if u.IsControlled != nil {
		if *u.IsControlled && !f.IsControlled {
			controlled := now
			f.ControlledDate = &controlled
		}
		f.IsControlled = *u.IsControlled
	}

	if u.NeedReview != nil {
		f.NeedReview = *u.NeedReview
	}

	f.UpdatedAt = now
	return f, sent
}

// MirrorOnto copia las banderas del formulario al animal (siempre, sin comparar).
// Con sent=true además registra now como último envío.
func MirrorOnto(a animals.Animal, f Form, sent bool, now time.Time) animals.Animal {
	a.IsSent = f.IsSent
	a.IsControlled = f.IsControlled
	a.NeedReview = f.NeedReview
	if sent {
		t := now
		a.LastFormSentDate = &t
	}
	a.UpdatedAt = now
	return a
}

// Latest devuelve el formulario actualizado más recientemente.
func Latest(items []Form) (Form, bool) {
	if len(items) == 0 {
		return Form{}, false
	}
	sorted := append([]Form(nil), items...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		if !a.CreatedDate.Equal(b.CreatedDate) {
			return a.CreatedDate.After(b.CreatedDate)
		}
		return a.ID > b.ID
	})
	return sorted[0], true
}

// Remirror recalcula las banderas del animal a partir de los formularios que quedan.
// Sin formularios las banderas vuelven a false; last_form_sent_date no se toca.
func Remirror(a animals.Animal, remaining []Form, now time.Time) animals.Animal {
	if latest, ok := Latest(remaining); ok {
		return MirrorOnto(a, latest, false, now)
	}
	a.IsSent = false
	a.IsControlled = false
	a.NeedReview = false
	a.UpdatedAt = now
	return a
}

// HasPendingSend indica si ya hay un formulario sin enviar.
func HasPendingSend(items []Form) bool {
	for _, f := range items {
		if !f.IsSent {
			return true
		}
	}
	return false
}
