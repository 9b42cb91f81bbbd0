package forms

import (
	"encoding/json"
	"net/http"
	"time"

	"adoption-followup/internal/domain/errs"
	"adoption-followup/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta rutas relativas; el router las cuelga de /forms con RequireAuth.
// Las rutas fijas van antes de /{formID}.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/", createFormHandler(svc))
	r.Post("/by-ids", listByIDsHandler(svc))
	r.Get("/animal/{animalID}", listByAnimalHandler(svc))

	r.Get("/", listFormsHandler(svc, StatusAny))
	r.Get("/need-review", listFormsHandler(svc, StatusNeedReview))
	r.Get("/pending-send", listFormsHandler(svc, StatusPendingSend))
	r.Get("/pending-control", listFormsHandler(svc, StatusPendingControl))

	r.Get("/{formID}", getFormHandler(svc))
	r.Put("/{formID}", updateFormHandler(svc))
	r.Delete("/{formID}", deleteFormHandler(svc))
}

type createFormRequest struct {
	AnimalID string `json:"animal_id" validate:"required"`
}

type updateFormRequest struct {
	IsSent       *bool `json:"is_sent"`
	IsControlled *bool `json:"is_controlled"`
	NeedReview   *bool `json:"need_review"`
}

type FormResponse struct {
	ID             string     `json:"id"`
	AnimalID       string     `json:"animal_id"`
	IsSent         bool       `json:"is_sent"`
	IsControlled   bool       `json:"is_controlled"`
	NeedReview     bool       `json:"need_review"`
	CreatedDate    time.Time  `json:"created_date"`
	SendDate       *time.Time `json:"send_date"`
	ControlDueDate *time.Time `json:"control_due_date"`
	ControlledDate *time.Time `json:"controlled_date"`
}

// createFormHandler crea un formulario manual.
// @Summary      Crear formulario
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        body  body      createFormRequest  true  "animal"
// @Success      201   {object}  FormResponse
// @Failure      404   {string}  string  "animal not found"
// @Security     BearerAuth
// @Router       /forms [post]
func createFormHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createFormRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}
		f, err := svc.Create(r.Context(), req.AnimalID)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, ToResponse(f))
	}
}

// CreateForAnimalHandler es el atajo POST /animals/{animalID}/create-form.
// Vive acá porque animals no importa forms.
// @Summary      Crear formulario para el animal
// @Tags         forms
// @Produce      json
// @Param        animalID  path      string  true  "id"
// @Success      201       {object}  FormResponse
// @Failure      404       {string}  string  "animal not found"
// @Security     BearerAuth
// @Router       /animals/{animalID}/create-form [post]
func CreateForAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := svc.Create(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, ToResponse(f))
	}
}

// listByIDsHandler recibe un array JSON de ids.
// @Summary      Formularios por ids
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        body  body      []string  true  "ids"
// @Success      200   {array}   FormResponse
// @Security     BearerAuth
// @Router       /forms/by-ids [post]
func listByIDsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ids []string
		if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
			httpx.WriteError(w, errs.Invalid("body must be a JSON array of form ids"))
			return
		}
		items, err := svc.ListByIDs(r.Context(), ids)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toResponses(items))
	}
}

// @Summary      Formularios de un animal
// @Tags         forms
// @Produce      json
// @Param        animalID  path     string  true  "id"
// @Success      200       {array}  FormResponse
// @Security     BearerAuth
// @Router       /forms/animal/{animalID} [get]
func listByAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListByAnimal(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toResponses(items))
	}
}

// pending-control, a diferencia de animals, exige control_due_date vencida.
// @Summary      Listar formularios
// @Tags         forms
// @Produce      json
// @Param        skip   query    int  false  "offset"
// @Param        limit  query    int  false  "máximo (default 100)"
// @Success      200    {array}  FormResponse
// @Security     BearerAuth
// @Router       /forms [get]
// @Router       /forms/need-review [get]
// @Router       /forms/pending-send [get]
// @Router       /forms/pending-control [get]
func listFormsHandler(svc *Service, status Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, limit := httpx.Page(r)
		items, err := svc.List(r.Context(), status, skip, limit)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toResponses(items))
	}
}

// @Summary      Obtener formulario
// @Tags         forms
// @Produce      json
// @Param        formID  path      string  true  "id"
// @Success      200     {object}  FormResponse
// @Failure      404     {string}  string
// @Security     BearerAuth
// @Router       /forms/{formID} [get]
func getFormHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := svc.GetByID(r.Context(), chi.URLParam(r, "formID"))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ToResponse(f))
	}
}

// updateFormHandler cambia banderas; las fechas las pone el servidor.
// @Summary      Actualizar estado del formulario
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        formID  path      string             true  "id"
// @Param        body    body      updateFormRequest  true  "banderas"
// @Success      200     {object}  FormResponse
// @Failure      404     {string}  string
// @Security     BearerAuth
// @Router       /forms/{formID} [put]
func updateFormHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateFormRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}
		f, err := svc.UpdateStatus(r.Context(), chi.URLParam(r, "formID"), StatusUpdate{
			IsSent:       req.IsSent,
			IsControlled: req.IsControlled,
			NeedReview:   req.NeedReview,
		})
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ToResponse(f))
	}
}

// @Summary      Borrar formulario
// @Tags         forms
// @Param        formID  path  string  true  "id"
// @Success      204
// @Failure      404  {string}  string
// @Security     BearerAuth
// @Router       /forms/{formID} [delete]
func deleteFormHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "formID")); err != nil {
			httpx.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ToResponse es el JSON público de un formulario; duecheck lo reutiliza.
func ToResponse(f Form) FormResponse {
	return FormResponse{
		ID:             f.ID,
		AnimalID:       f.AnimalID,
		IsSent:         f.IsSent,
		IsControlled:   f.IsControlled,
		NeedReview:     f.NeedReview,
		CreatedDate:    f.CreatedDate,
		SendDate:       f.SendDate,
		ControlDueDate: f.ControlDueDate,
		ControlledDate: f.ControlledDate,
	}
}

func toResponses(items []Form) []FormResponse {
	out := make([]FormResponse, 0, len(items))
	for _, f := range items {
		out = append(out, ToResponse(f))
	}
	return out
}
