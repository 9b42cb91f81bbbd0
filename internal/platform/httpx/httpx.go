// Package httpx junta los helpers HTTP que antes estaban duplicados en cada handler de dominio
// (writeJSON, decode, mapeo de errores). Con cuatro módulos ya valía la pena extraerlos.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"adoption-followup/internal/domain/errs"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

var validate = newValidator()

// newValidator reporta los campos con su nombre JSON (owner_contact_email, no OwnerContactEmail).
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// WriteJSON serializa v con el status indicado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError traduce los errores de dominio a status HTTP.
// Los errores de persistencia (o desconocidos) nunca exponen el detalle.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, errs.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, errs.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, errs.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, errs.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", "Bearer")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, errs.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// DecodeJSON decodifica el body en v y corre las validaciones `validate:"..."`.
// Cualquier fallo se devuelve envuelto en errs.ErrInvalidInput.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Invalid("invalid json")
	}
	return Validate(v)
}

// Validate corre el validador compartido sobre un struct.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return errs.Invalid(describe(ve[0]))
		}
		return errs.Invalid(err.Error())
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// Page lee ?skip=&limit= con defaults (0, 100) y tope MaxLimit.
func Page(r *http.Request) (skip, limit int) {
	limit = DefaultLimit
	if v := strings.TrimSpace(r.URL.Query().Get("skip")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			skip = n
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return skip, limit
}
