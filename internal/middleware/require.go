package middleware

import (
	"net/http"

	"adoption-followup/internal/domain/errs"
	"adoption-followup/internal/platform/httpx"
)

// RequireAuth corta con 401 si AuthContext no dejó claims en el contexto.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetClaims(r.Context()); !ok {
			httpx.WriteError(w, errs.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin exige claims con rol admin: 401 sin claims, 403 con otro rol.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := GetClaims(r.Context())
		if !ok {
			httpx.WriteError(w, errs.ErrUnauthorized)
			return
		}
		if !c.IsAdmin() {
			httpx.WriteError(w, errs.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
