package config

import (
	"strings"
	"time"
)

// Config agrupa toda la configuración del servicio. Se lee una sola vez al arrancar.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	App    string `mapstructure:"app"`
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	// Driver vacío = se deduce del DSN (sin DSN => memory).
	Driver      string `mapstructure:"driver" validate:"omitempty,oneof=memory postgres sqlite"`
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// ResolvedDriver aplica la regla de deducción sobre Driver/DSN.
func (d DatabaseConfig) ResolvedDriver() string {
	if d.Driver != "" {
		return d.Driver
	}
	dsn := strings.ToLower(strings.TrimSpace(d.DSN))
	switch {
	case dsn == "":
		return DriverMemory
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(dsn, "sqlite:"), strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"):
		return DriverSQLite
	default:
		return DriverPostgres
	}
}

// SQLitePath quita el prefijo estilo SQLAlchemy (sqlite:///./x.db) si viene.
func (d DatabaseConfig) SQLitePath() string {
	dsn := strings.TrimSpace(d.DSN)
	for _, p := range []string{"sqlite:///", "sqlite://"} {
		if strings.HasPrefix(dsn, p) {
			return strings.TrimPrefix(dsn, p)
		}
	}
	return dsn
}

type AuthConfig struct {
	// JWTSecret vacío => modo dev (headers X-Debug-User-ID / X-Debug-Role, sin login).
	JWTSecret            string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`

	// Admin inicial; si AdminName viene vacío no se crea nada.
	AdminName     string `mapstructure:"admin_name"`
	AdminPassword string `mapstructure:"admin_password" validate:"required_with=AdminName"`
}

func (a AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(a.TokenLifetimeMinutes) * time.Minute
}

type SchedulerConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	IntervalHours float64 `mapstructure:"interval_hours" validate:"gt=0"`
	RunOnStart    bool    `mapstructure:"run_on_start"`
}

func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalHours * float64(time.Hour))
}
