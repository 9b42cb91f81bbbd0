package users

import (
	"net/http"
	"strings"
	"time"

	"adoption-followup/internal/domain/errs"
	"adoption-followup/internal/middleware"
	"adoption-followup/internal/platform/httpx"
	"adoption-followup/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta las rutas relativas (el router las cuelga de /users).
// tokens puede ser nil (modo dev): login/token responden 501.
func RegisterRoutes(r chi.Router, svc *Service, tokens auth.TokenIssuer) {
	r.Post("/login", loginHandler(svc, tokens))
	r.Post("/token", tokenHandler(svc, tokens))

	r.Group(func(ar chi.Router) {
		ar.Use(middleware.RequireAuth)
		ar.Get("/me", meHandler(svc))
		ar.Get("/{userID}", getUserHandler(svc))
	})

	r.Group(func(ar chi.Router) {
		ar.Use(middleware.RequireAdmin)
		ar.Post("/register", registerHandler(svc))
		ar.Get("/", listUsersHandler(svc))
		ar.Put("/{userID}", updateUserHandler(svc))
		ar.Delete("/{userID}", deleteUserHandler(svc))
	})
}

type loginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"omitempty,oneof=admin regular"`
}

type updateUserRequest struct {
	// Punteros: nil = no tocar.
	Name     *string `json:"name" validate:"omitempty"`
	Password *string `json:"password" validate:"omitempty"`
	Role     *Role   `json:"role" validate:"omitempty,oneof=admin regular"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// loginHandler autentica con JSON y devuelve un bearer token.
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "credenciales"
// @Success      200   {object}  tokenResponse
// @Failure      401   {string}  string
// @Router       /users/login [post]
func loginHandler(svc *Service, tokens auth.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}
		issueToken(w, r, svc, tokens, req.Name, req.Password)
	}
}

// tokenHandler es el flujo OAuth2 password (form-urlencoded username/password).
// @Summary      OAuth2 password token
// @Tags         users
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username  formData  string  true  "nombre"
// @Param        password  formData  string  true  "password"
// @Success      200       {object}  tokenResponse
// @Failure      401       {string}  string
// @Router       /users/token [post]
func tokenHandler(svc *Service, tokens auth.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			httpx.WriteError(w, errs.Invalid("invalid form body"))
			return
		}
		name := strings.TrimSpace(r.PostForm.Get("username"))
		password := r.PostForm.Get("password")
		if name == "" || password == "" {
			httpx.WriteError(w, errs.Invalid("username and password are required"))
			return
		}
		issueToken(w, r, svc, tokens, name, password)
	}
}

func issueToken(w http.ResponseWriter, r *http.Request, svc *Service, tokens auth.TokenIssuer, name, password string) {
	if tokens == nil {
		http.Error(w, "login disabled: no token issuer configured", http.StatusNotImplemented)
		return
	}
	u, err := svc.Authenticate(r.Context(), name, password)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	tok, err := tokens.Issue(r.Context(), auth.Claims{UserID: u.ID, Role: string(u.Role)})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   tok.ExpiresAt,
	})
}

// registerHandler crea un usuario (solo admin).
// @Summary      Registrar usuario
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "usuario"
// @Success      201   {object}  userResponse
// @Failure      400   {string}  string
// @Failure      409   {string}  string
// @Security     BearerAuth
// @Router       /users/register [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}
		u, err := svc.Register(r.Context(), RegisterInput{Name: req.Name, Password: req.Password, Role: req.Role})
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toUserResponse(u))
	}
}

// @Summary      Listar usuarios
// @Tags         users
// @Produce      json
// @Param        skip   query    int  false  "offset"
// @Param        limit  query    int  false  "máximo (default 100)"
// @Success      200    {array}  userResponse
// @Failure      403    {string}  string
// @Security     BearerAuth
// @Router       /users [get]
func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, limit := httpx.Page(r)
		items, err := svc.List(r.Context(), Page{Skip: skip, Limit: limit})
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// @Summary      Usuario autenticado
// @Tags         users
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {string}  string
// @Security     BearerAuth
// @Router       /users/me [get]
func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())
		u, err := svc.GetByID(r.Context(), claims.UserID)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// @Summary      Obtener usuario
// @Tags         users
// @Produce      json
// @Param        userID  path      string  true  "id"
// @Success      200     {object}  userResponse
// @Failure      404     {string}  string
// @Security     BearerAuth
// @Router       /users/{userID} [get]
func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// @Summary      Actualizar usuario
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userID  path      string             true  "id"
// @Param        body    body      updateUserRequest  true  "campos a cambiar"
// @Success      200     {object}  userResponse
// @Failure      404     {string}  string
// @Failure      409     {string}  string
// @Security     BearerAuth
// @Router       /users/{userID} [put]
func updateUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateUserRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}
		u, err := svc.Update(r.Context(), chi.URLParam(r, "userID"), UpdateInput{
			Name:     req.Name,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// @Summary      Borrar usuario
// @Tags         users
// @Param        userID  path  string  true  "id"
// @Success      204
// @Failure      404  {string}  string
// @Security     BearerAuth
// @Router       /users/{userID} [delete]
func deleteUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
			httpx.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
