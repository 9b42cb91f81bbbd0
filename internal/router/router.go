package router

import (
	"context"
	"net/http"
	"time"

	mem "adoption-followup/internal/adapters/storage/memory"
	"adoption-followup/internal/domain/animals"
	"adoption-followup/internal/domain/duecheck"
	"adoption-followup/internal/domain/forms"
	"adoption-followup/internal/domain/users"
	"adoption-followup/internal/middleware"
	"adoption-followup/internal/platform/httpx"
	"adoption-followup/internal/platform/logger"
	"adoption-followup/internal/ports/auth"

	_ "adoption-followup/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Storage lo cumplen memory.Store y sqldb.Store.
type Storage interface {
	Users() users.Repository
	Animals() animals.Repository
	Forms() forms.Store
}

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	Tokens       auth.TokenIssuer  // nil => login responde 501

	// Opcional: si no viene, in-memory.
	Store Storage

	Logger logger.Logger

	// Registry para /metrics. Si es nil se crea uno propio.
	Registry *prometheus.Registry
}

// App es el handler HTTP más los servicios que main necesita fuera del router.
type App struct {
	Handler  http.Handler
	DueCheck *duecheck.Checker
	Users    *users.Service
}

func New(opts Options) App {
	log := logger.OrNop(opts.Logger)

	store := opts.Store
	if store == nil {
		store = mem.NewStore()
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	// Services por módulo
	usersSvc := users.NewService(store.Users(), nil)
	animalsSvc := animals.NewService(store.Animals(), usersSvc)
	formsSvc := forms.NewService(store.Forms(), animalsSvc)
	checker := duecheck.NewChecker(store.Animals(), store.Forms(), log, duecheck.NewMetrics(reg))

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/", rootHandler())
	r.Get("/health", healthHandler(store))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Rutas por módulo
	r.Route("/users", func(r chi.Router) {
		users.RegisterRoutes(r, usersSvc, opts.Tokens)
	})

	r.Route("/animals", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		animals.RegisterRoutes(r, animalsSvc)
		r.Post("/{animalID}/create-form", forms.CreateForAnimalHandler(formsSvc))
	})

	r.Route("/forms", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.With(middleware.RequireAdmin).Post("/generate-periodic", duecheck.GeneratePeriodicHandler(checker))
		forms.RegisterRoutes(r, formsSvc)
	})

	return App{Handler: r, DueCheck: checker, Users: usersSvc}
}

// NewRouter arma solo el handler.
func NewRouter(opts Options) http.Handler {
	return New(opts).Handler
}

type rootResponse struct {
	Service string `json:"service"`
	Docs    string `json:"docs"`
	Health  string `json:"health"`
}

// rootHandler
// @Summary  Info del servicio
// @Tags     meta
// @Produce  json
// @Success  200  {object}  rootResponse
// @Router   / [get]
func rootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, rootResponse{
			Service: "adoption-followup",
			Docs:    "/swagger/index.html",
			Health:  "/health",
		})
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// @Summary  Health check
// @Tags     meta
// @Produce  plain
// @Success  200  {string}  string
// @Failure  503  {string}  string  "database unavailable"
// @Router   /health [get]
func healthHandler(store Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p, ok := store.(pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
