package animals

import "time"

// Animal es un animal adoptado bajo seguimiento. IsSent/IsControlled/NeedReview
// reflejan el último formulario actualizado (ver forms.MirrorOnto).
type Animal struct {
	ID                string
	Name              string
	ResponsibleUserID string // vacío si el responsable fue eliminado

	OwnerName          string
	OwnerContactNumber string
	OwnerContactEmail  string

	// Meses entre formularios, >= 1.
	FormGenerationPeriod int
	LastFormSentDate     *time.Time

	IsSent       bool
	IsControlled bool
	NeedReview   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status filtra listados por las banderas espejadas.
// @Enum need-review, pending-send, pending-control
type Status string

const (
	StatusAny            Status = ""
	StatusNeedReview     Status = "need-review"
	StatusPendingSend    Status = "pending-send"
	StatusPendingControl Status = "pending-control"
)

// Matches evalúa el filtro sobre un animal. Para animales pending-control
// solo mira las banderas (el vencimiento vive en el formulario).
func (s Status) Matches(a Animal) bool {
	switch s {
	case StatusNeedReview:
		return a.NeedReview
	case StatusPendingSend:
		return !a.IsSent
	case StatusPendingControl:
		return a.IsSent && !a.IsControlled
	default:
		return true
	}
}

type ListFilter struct {
	Status Status
	Skip   int
	Limit  int // 0 = sin límite

	// After pagina por cursor: solo animales posteriores a (CreatedAt, ID).
	After *Cursor
}

// Cursor es la posición de un animal en el orden de List.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorOf devuelve el cursor que deja a a como último visto.
func CursorOf(a Animal) *Cursor {
	return &Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
}

// Before indica si a va antes o en la posición del cursor (ya fue visto).
func (c *Cursor) Before(a Animal) bool {
	if c == nil {
		return false
	}
	if !a.CreatedAt.Equal(c.CreatedAt) {
		return a.CreatedAt.Before(c.CreatedAt)
	}
	return a.ID <= c.ID
}
