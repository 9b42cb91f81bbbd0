package animals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"adoption-followup/internal/domain/errs"

	"github.com/google/uuid"
)

// UserLookup evita importar el paquete users.
type UserLookup interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

type Service struct {
	repo  Repository
	users UserLookup
	now   func() time.Time
}

func NewService(repo Repository, users UserLookup) *Service {
	return &Service{
		repo:  repo,
		users: users,
		now:   time.Now,
	}
}

type CreateInput struct {
	Name                 string
	ResponsibleUserID    string
	OwnerName            string
	OwnerContactNumber   string
	OwnerContactEmail    string
	FormGenerationPeriod int
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Animal, error) {
	a := Animal{
		Name:                 strings.TrimSpace(in.Name),
		ResponsibleUserID:    strings.TrimSpace(in.ResponsibleUserID),
		OwnerName:            strings.TrimSpace(in.OwnerName),
		OwnerContactNumber:   strings.TrimSpace(in.OwnerContactNumber),
		OwnerContactEmail:    strings.TrimSpace(in.OwnerContactEmail),
		FormGenerationPeriod: in.FormGenerationPeriod,
	}
	if err := validate(a); err != nil {
		return Animal{}, err
	}
	if err := s.checkResponsible(ctx, a.ResponsibleUserID); err != nil {
		return Animal{}, err
	}

	now := s.now()
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := s.repo.Create(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Animal, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Animal, error) {
	switch f.Status {
	case StatusAny, StatusNeedReview, StatusPendingSend, StatusPendingControl:
	default:
		return nil, errs.Invalid(fmt.Sprintf("unknown status filter %q", f.Status))
	}
	return s.repo.List(ctx, f)
}

// UpdateInput: nil = no tocar. LastFormSentDate usa Present para permitir null.
type UpdateInput struct {
	Name                 *string
	ResponsibleUserID    *string
	OwnerName            *string
	OwnerContactNumber   *string
	OwnerContactEmail    *string
	FormGenerationPeriod *int

	IsSent       *bool
	IsControlled *bool
	NeedReview   *bool

	LastFormSentDate PatchTime
}

type PatchTime struct {
	Present bool
	Value   *time.Time
}

// Update aplica in sobre el estado actual del animal, releído con su lock tomado:
// un formulario actualizado en paralelo nunca se pisa con banderas viejas.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Animal, error) {
	var responsible string
	if in.ResponsibleUserID != nil {
		responsible = strings.TrimSpace(*in.ResponsibleUserID)
		// Fuera del lock: users vive en el mismo store.
		if err := s.checkResponsible(ctx, responsible); err != nil {
			return Animal{}, err
		}
	}

	return s.repo.UpdateFunc(ctx, id, func(a Animal) (Animal, error) {
		if in.Name != nil {
			a.Name = strings.TrimSpace(*in.Name)
		}
		if in.ResponsibleUserID != nil {
			a.ResponsibleUserID = responsible
		}
		if in.OwnerName != nil {
			a.OwnerName = strings.TrimSpace(*in.OwnerName)
		}
		if in.OwnerContactNumber != nil {
			a.OwnerContactNumber = strings.TrimSpace(*in.OwnerContactNumber)
		}
		if in.OwnerContactEmail != nil {
			a.OwnerContactEmail = strings.TrimSpace(*in.OwnerContactEmail)
		}
		if in.FormGenerationPeriod != nil {
			a.FormGenerationPeriod = *in.FormGenerationPeriod
		}
		if in.IsSent != nil {
			a.IsSent = *in.IsSent
		}
		if in.IsControlled != nil {
			a.IsControlled = *in.IsControlled
		}
		if in.NeedReview != nil {
			a.NeedReview = *in.NeedReview
		}
		if in.LastFormSentDate.Present {
			if in.LastFormSentDate.Value == nil {
				a.LastFormSentDate = nil
			} else {
				t := in.LastFormSentDate.Value.UTC()
				a.LastFormSentDate = &t
			}
		}

		if err := validate(a); err != nil {
			return Animal{}, err
		}
		a.UpdatedAt = s.now()
		return a, nil
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) checkResponsible(ctx context.Context, userID string) error {
	if userID == "" {
		return errs.Invalid("responsible_user_id is required")
	}
	if s.users == nil {
		return nil
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound("responsible user")
	}
	return nil
}

func validate(a Animal) error {
	switch {
	case a.Name == "":
		return errs.Invalid("name is required")
	case a.OwnerName == "":
		return errs.Invalid("owner_name is required")
	case a.OwnerContactNumber == "":
		return errs.Invalid("owner_contact_number is required")
	case a.OwnerContactEmail == "" || !strings.Contains(a.OwnerContactEmail, "@"):
		return errs.Invalid("owner_contact_email must be a valid email")
	case a.FormGenerationPeriod < 1:
		return errs.Invalid("form_generation_period must be >= 1")
	}
	return nil
}
