package forms

import (
	"time"

	"github.com/google/uuid"
)

// Form es un control de bienestar para un animal adoptado.
type Form struct {
	ID       string
	AnimalID string

	IsSent       bool
	IsControlled bool
	NeedReview   bool

	CreatedDate    time.Time
	SendDate       *time.Time
	ControlDueDate *time.Time
	ControlledDate *time.Time

	UpdatedAt time.Time
}

// NewForm arma un formulario nuevo, sin enviar ni controlar.
func NewForm(animalID string, now time.Time) Form {
	return Form{
		ID:          uuid.NewString(),
		AnimalID:    animalID,
		CreatedDate: now,
		UpdatedAt:   now,
	}
}

// Status filtra listados de formularios.
// @Enum need-review, pending-send, pending-control
type Status string

const (
	StatusAny            Status = ""
	StatusNeedReview     Status = "need-review"
	StatusPendingSend    Status = "pending-send"
	StatusPendingControl Status = "pending-control"
)

// Matches evalúa el filtro. pending-control exige que el vencimiento ya haya pasado.
func (s Status) Matches(f Form, now time.Time) bool {
	switch s {
	case StatusNeedReview:
		return f.NeedReview
	case StatusPendingSend:
		return !f.IsSent
	case StatusPendingControl:
		return f.IsSent && !f.IsControlled && f.ControlDueDate != nil && now.After(*f.ControlDueDate)
	default:
		return true
	}
}

type ListFilter struct {
	Status Status
	Now    time.Time
	Skip   int
	Limit  int // 0 = sin límite
}
