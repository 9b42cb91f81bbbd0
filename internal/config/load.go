package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const EnvPrefix = "ADOPTION"

// legacyEnv son las variables que ya usaban los despliegues anteriores.
// Siguen funcionando como alias de la variable ADOPTION_* correspondiente.
var legacyEnv = map[string][]string{
	"server.port":                 {"PORT"},
	"log.level":                   {"LOG_LEVEL"},
	"log.format":                  {"LOG_FORMAT"},
	"log.app":                     {"APP_NAME"},
	"database.dsn":                {"DB_DSN", "DATABASE_URL"},
	"auth.jwt_secret":             {"SECRET_KEY"},
	"auth.token_lifetime_minutes": {"ACCESS_TOKEN_EXPIRE_MINUTES"},
	"scheduler.interval_hours":    {"FORM_GEN_INTERVAL_HOURS"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.app", "adoption-followup")

	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 30)
	v.SetDefault("auth.admin_name", "")
	v.SetDefault("auth.admin_password", "")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval_hours", 12)
	v.SetDefault("scheduler.run_on_start", false)
}

// Load lee defaults, luego ./config.yaml (opcional) y por último env.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile es Load con un archivo explícito. Si path está vacío busca config.yaml
// en el directorio actual y no falla si no existe.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// BindEnv toma la primera variable presente: ADOPTION_* gana sobre el alias legacy.
	for key, aliases := range legacyEnv {
		names := []string{key, EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		names = append(names, aliases...)
		if err := v.BindEnv(names...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
