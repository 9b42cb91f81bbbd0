// Command duecheck dispara la generación periódica de formularios contra una API en marcha.
// Sirve para correrla desde un cron externo cuando el scheduler interno está apagado.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adoption-followup/internal/adapters/apiclient"
	"adoption-followup/internal/platform/logger"
)

func main() {
	var (
		baseURL  = flag.String("url", envOr("ADOPTION_API_URL", "http://localhost:8080"), "base URL de la API")
		name     = flag.String("user", os.Getenv("ADOPTION_API_USER"), "usuario admin")
		password = flag.String("password", os.Getenv("ADOPTION_API_PASSWORD"), "password (mejor por env)")
		token    = flag.String("token", os.Getenv("ADOPTION_API_TOKEN"), "bearer token ya emitido (saltea el login)")
		timeout  = flag.Duration("timeout", time.Minute, "timeout por request")
	)
	flag.Parse()

	log := logger.NewFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, *baseURL, *name, *password, *token, *timeout); err != nil {
		log.Error("duecheck failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(ctx context.Context, log logger.Logger, baseURL, name, password, token string, timeout time.Duration) error {
	c, err := apiclient.New(baseURL, timeout)
	if err != nil {
		return err
	}

	switch {
	case token != "":
		c.SetToken(token)
	case name != "" && password != "":
		if err := c.Login(ctx, name, password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	default:
		return fmt.Errorf("credentials required: -token or -user/-password")
	}

	res, err := c.GeneratePeriodic(ctx)
	if err != nil {
		return fmt.Errorf("generate periodic: %w", err)
	}
	log.Info("duecheck finished", map[string]any{
		"created": res.Created,
		"checked": res.Checked,
		"skipped": res.Skipped,
		"failed":  res.Failed,
	})
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
