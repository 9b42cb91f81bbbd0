package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"adoption-followup/internal/adapters/auth/jwtauth"
	mem "adoption-followup/internal/adapters/storage/memory"
	"adoption-followup/internal/adapters/storage/sqldb"
	"adoption-followup/internal/config"
	"adoption-followup/internal/domain/duecheck"
	"adoption-followup/internal/platform/logger"
	"adoption-followup/internal/ports/auth"
	"adoption-followup/internal/router"
)

// @title                       Adoption follow-up API
// @version                     1.0
// @description                 Seguimiento post-adopción: animales, formularios de control y generación periódica.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type storage interface {
	router.Storage
	Close() error
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("store close failed", map[string]any{"error": err.Error()})
		}
	}()

	opts := router.Options{Store: store, Logger: log}
	if cfg.Auth.JWTSecret != "" {
		tokens, err := jwtauth.New(jwtauth.Config{
			Secret:   cfg.Auth.JWTSecret,
			Lifetime: cfg.Auth.TokenLifetime(),
			Issuer:   cfg.Log.App,
		})
		if err != nil {
			return fmt.Errorf("jwt: %w", err)
		}
		opts.AuthVerifier, opts.Tokens = auth.AuthVerifier(tokens), auth.TokenIssuer(tokens)
	} else {
		log.Warn("no jwt secret configured: dev mode with X-Debug-User-ID headers", nil)
	}

	app := router.New(opts)

	if cfg.Auth.AdminName != "" {
		u, created, err := app.Users.EnsureAdmin(ctx, cfg.Auth.AdminName, cfg.Auth.AdminPassword)
		if err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
		if created {
			log.Info("admin user created", map[string]any{"user_id": u.ID, "name": u.Name})
		}
	}

	var sched *duecheck.Scheduler
	if cfg.Scheduler.Enabled {
		var schedOpts []duecheck.SchedulerOption
		if cfg.Scheduler.RunOnStart {
			schedOpts = append(schedOpts, duecheck.RunOnStart())
		}
		sched = duecheck.NewScheduler(app.DueCheck, cfg.Scheduler.Interval(), log, schedOpts...)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      app.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "driver": cfg.Database.ResolvedDriver()})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	if sched != nil {
		sched.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, db config.DatabaseConfig, log logger.Logger) (storage, error) {
	var (
		dialect sqldb.Dialect
		dsn     string
	)
	switch db.ResolvedDriver() {
	case config.DriverMemory:
		log.Warn("using in-memory storage: data is lost on restart", nil)
		return mem.NewStore(), nil
	case config.DriverSQLite:
		dialect, dsn = sqldb.SQLite, db.SQLitePath()
	default:
		dialect, dsn = sqldb.Postgres, db.DSN
	}

	s, err := sqldb.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	if db.AutoMigrate {
		if err := s.Migrate(ctx, log); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}
