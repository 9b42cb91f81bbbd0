package sqldb

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"adoption-followup/internal/platform/logger"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// goose guarda dialecto y FS en variables globales.
var gooseMu sync.Mutex

// Migrate aplica las migraciones pendientes del dialecto.
func (s *Store) Migrate(ctx context.Context, log logger.Logger) error {
	dir, gooseDialect := "migrations/postgres", "postgres"
	if s.dialect == SQLite {
		dir, gooseDialect = "migrations/sqlite", "sqlite3"
	}
	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(gooseLogger{log: logger.OrNop(log)})
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// gooseLogger adapta goose.Logger al logger del servicio.
type gooseLogger struct {
	log logger.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Info(fmt.Sprintf(format, v...), map[string]any{"component": "migrations"})
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.Error(fmt.Sprintf(format, v...), map[string]any{"component": "migrations"})
}
