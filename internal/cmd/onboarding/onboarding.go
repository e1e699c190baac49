// Package onboarding wires configuration and startup for the onboarding service.
package onboarding

import (
	"context"
	"flag"

	entrypoint "github.com/shiftstory/shiftstory/internal/platform/cmd"
	"github.com/shiftstory/shiftstory/internal/services/onboarding/app"
)

// envConfig holds environment defaults before flag layering.
type envConfig struct {
	Addr        string `env:"SHIFTSTORY_HTTP_ADDR" envDefault:":8080"`
	StoragePath string `env:"SHIFTSTORY_STORAGE_PATH"`
	MaxSessions int    `env:"SHIFTSTORY_MAX_SESSIONS" envDefault:"1024"`
}

// Config holds onboarding command configuration.
type Config struct {
	Addr        string
	StoragePath string
	MaxSessions int
}

// ParseConfig resolves configuration from the environment, then flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var env envConfig
	if err := entrypoint.ParseConfig(&env); err != nil {
		return Config{}, err
	}
	cfg := Config{
		Addr:        env.Addr,
		StoragePath: env.StoragePath,
		MaxSessions: env.MaxSessions,
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.StoragePath, "storage-path", cfg.StoragePath, "SQLite database file")
	fs.IntVar(&cfg.MaxSessions, "max-sessions", cfg.MaxSessions, "maximum live onboarding sessions")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the onboarding server with telemetry configured.
func Run(ctx context.Context, cfg Config) error {
	verifier, err := app.LoadVerifierFromEnv(nil)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceOnboarding, func(ctx context.Context) error {
		return app.Run(ctx, app.Config{
			Addr:        cfg.Addr,
			StoragePath: cfg.StoragePath,
			MaxSessions: cfg.MaxSessions,
			Verifier:    verifier,
		})
	})
}
