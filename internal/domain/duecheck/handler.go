package duecheck

import (
	"net/http"

	"adoption-followup/internal/domain/forms"
	"adoption-followup/internal/platform/httpx"
)

type generateResponse struct {
	Created int                  `json:"created"`
	Checked int                  `json:"checked"`
	Skipped int                  `json:"skipped"`
	Failed  int                  `json:"failed"`
	Forms   []forms.FormResponse `json:"forms"`
}

// GeneratePeriodicHandler corre el due-check en el request (solo admin).
// @Summary      Generar formularios vencidos
// @Description  Corre la misma verificación que el timer y devuelve lo creado.
// @Tags         forms
// @Produce      json
// @Success      200  {object}  generateResponse
// @Failure      403  {string}  string
// @Security     BearerAuth
// @Router       /forms/generate-periodic [post]
func GeneratePeriodicHandler(runner Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := runner.Run(r.Context(), TriggerManual)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		out := generateResponse{
			Created: res.Created,
			Checked: res.Checked,
			Skipped: res.Skipped,
			Failed:  res.Failed,
			Forms:   make([]forms.FormResponse, 0, len(res.Forms)),
		}
		for _, f := range res.Forms {
			out.Forms = append(out.Forms, forms.ToResponse(f))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}
