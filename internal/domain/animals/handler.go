package animals

import (
	"net/http"
	"time"

	"adoption-followup/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta rutas relativas; el router las cuelga de /animals con RequireAuth.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/", createAnimalHandler(svc))
	r.Get("/", listAnimalsHandler(svc, StatusAny))

	r.Get("/need-review", listAnimalsHandler(svc, StatusNeedReview))
	r.Get("/pending-send", listAnimalsHandler(svc, StatusPendingSend))
	r.Get("/pending-control", listAnimalsHandler(svc, StatusPendingControl))

	r.Get("/{animalID}", getAnimalHandler(svc))
	r.Put("/{animalID}", updateAnimalHandler(svc))
	r.Delete("/{animalID}", deleteAnimalHandler(svc))
}

type createAnimalRequest struct {
	Name                 string `json:"name" validate:"required"`
	ResponsibleUserID    string `json:"responsible_user_id" validate:"required"`
	OwnerName            string `json:"owner_name" validate:"required"`
	OwnerContactNumber   string `json:"owner_contact_number" validate:"required"`
	OwnerContactEmail    string `json:"owner_contact_email" validate:"required,email"`
	FormGenerationPeriod int    `json:"form_generation_period" validate:"gte=1"`
}

type updateAnimalRequest struct {
	// Punteros para update parcial: nil = no tocar.
	Name                 *string `json:"name" validate:"omitempty,min=1"`
	ResponsibleUserID    *string `json:"responsible_user_id" validate:"omitempty,min=1"`
	OwnerName            *string `json:"owner_name" validate:"omitempty,min=1"`
	OwnerContactNumber   *string `json:"owner_contact_number" validate:"omitempty,min=1"`
	OwnerContactEmail    *string `json:"owner_contact_email" validate:"omitempty,email"`
	FormGenerationPeriod *int    `json:"form_generation_period" validate:"omitempty,gte=1"`

	IsSent       *bool `json:"is_sent"`
	IsControlled *bool `json:"is_controlled"`
	NeedReview   *bool `json:"need_review"`

	// "last_form_sent_date": null limpia la fecha; ausente no la toca.
	LastFormSentDate httpx.OptionalTime `json:"last_form_sent_date"`
}

type animalResponse struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	ResponsibleUserID    *string    `json:"responsible_user_id"`
	OwnerName            string     `json:"owner_name"`
	OwnerContactNumber   string     `json:"owner_contact_number"`
	OwnerContactEmail    string     `json:"owner_contact_email"`
	FormGenerationPeriod int        `json:"form_generation_period"`
	LastFormSentDate     *time.Time `json:"last_form_sent_date"`
	IsSent               bool       `json:"is_sent"`
	IsControlled         bool       `json:"is_controlled"`
	NeedReview           bool       `json:"need_review"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// createAnimalHandler registra un animal adoptado.
// @Summary      Registrar animal
// @Tags         animals
// @Accept       json
// @Produce      json
// @Param        body  body      createAnimalRequest  true  "animal"
// @Success      201   {object}  animalResponse
// @Failure      400   {string}  string
// @Failure      404   {string}  string  "responsible user not found"
// @Security     BearerAuth
// @Router       /animals [post]
func createAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAnimalRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}

		a, err := svc.Create(r.Context(), CreateInput{
			Name:                 req.Name,
			ResponsibleUserID:    req.ResponsibleUserID,
			OwnerName:            req.OwnerName,
			OwnerContactNumber:   req.OwnerContactNumber,
			OwnerContactEmail:    req.OwnerContactEmail,
			FormGenerationPeriod: req.FormGenerationPeriod,
		})
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toAnimalResponse(a))
	}
}

// listAnimalsHandler lista con skip/limit; status fija el filtro de la ruta.
// @Summary      Listar animales
// @Description  Los filtros miran solo las banderas del animal. pending-control es is_sent
// @Description  sin is_controlled y no tiene en cuenta control_due_date (ver /forms/pending-control).
// @Tags         animals
// @Produce      json
// @Param        skip   query     int  false  "offset"
// @Param        limit  query     int  false  "máximo (default 100)"
// @Success      200    {array}   animalResponse
// @Security     BearerAuth
// @Router       /animals [get]
// @Router       /animals/need-review [get]
// @Router       /animals/pending-send [get]
// @Router       /animals/pending-control [get]
func listAnimalsHandler(svc *Service, status Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, limit := httpx.Page(r)
		items, err := svc.List(r.Context(), ListFilter{Status: status, Skip: skip, Limit: limit})
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAnimalResponse(a))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// @Summary      Obtener animal
// @Tags         animals
// @Produce      json
// @Param        animalID  path      string  true  "id"
// @Success      200       {object}  animalResponse
// @Failure      404       {string}  string
// @Security     BearerAuth
// @Router       /animals/{animalID} [get]
func getAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

// @Summary      Actualizar animal
// @Tags         animals
// @Accept       json
// @Produce      json
// @Param        animalID  path      string               true  "id"
// @Param        body      body      updateAnimalRequest  true  "campos a cambiar"
// @Success      200       {object}  animalResponse
// @Failure      400       {string}  string
// @Failure      404       {string}  string
// @Security     BearerAuth
// @Router       /animals/{animalID} [put]
func updateAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateAnimalRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}

		a, err := svc.Update(r.Context(), chi.URLParam(r, "animalID"), UpdateInput{
			Name:                 req.Name,
			ResponsibleUserID:    req.ResponsibleUserID,
			OwnerName:            req.OwnerName,
			OwnerContactNumber:   req.OwnerContactNumber,
			OwnerContactEmail:    req.OwnerContactEmail,
			FormGenerationPeriod: req.FormGenerationPeriod,
			IsSent:               req.IsSent,
			IsControlled:         req.IsControlled,
			NeedReview:           req.NeedReview,
			LastFormSentDate: PatchTime{
				Present: req.LastFormSentDate.Present,
				Value:   req.LastFormSentDate.Value,
			},
		})
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

// deleteAnimalHandler borra el animal y sus formularios.
// @Summary      Borrar animal
// @Tags         animals
// @Param        animalID  path  string  true  "id"
// @Success      204
// @Failure      404  {string}  string
// @Security     BearerAuth
// @Router       /animals/{animalID} [delete]
func deleteAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "animalID")); err != nil {
			httpx.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// toAnimalResponse es el JSON público de un animal.
func toAnimalResponse(a Animal) animalResponse {
	var uid *string
	if a.ResponsibleUserID != "" {
		v := a.ResponsibleUserID
		uid = &v
	}
	return animalResponse{
		ID:                   a.ID,
		Name:                 a.Name,
		ResponsibleUserID:    uid,
		OwnerName:            a.OwnerName,
		OwnerContactNumber:   a.OwnerContactNumber,
		OwnerContactEmail:    a.OwnerContactEmail,
		FormGenerationPeriod: a.FormGenerationPeriod,
		LastFormSentDate:     a.LastFormSentDate,
		IsSent:               a.IsSent,
		IsControlled:         a.IsControlled,
		NeedReview:           a.NeedReview,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}
