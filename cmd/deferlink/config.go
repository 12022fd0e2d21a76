package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"

	deferlink "github.com/deferlink/deferlink-go"
	"github.com/deferlink/deferlink-go/logging"
	"github.com/deferlink/deferlink-go/storage"
)

// cliConfig is populated from environment variables, 12-factor style.
type cliConfig struct {
	ClientKey      string `env:"DEFERLINK_CLIENT_KEY,required"`
	BaseURL        string `env:"DEFERLINK_BASE_URL" envDefault:""`
	LogLevel       string `env:"DEFERLINK_LOG_LEVEL" envDefault:"info"`
	AllowSimulator bool   `env:"DEFERLINK_ALLOW_SIMULATOR" envDefault:"true"`
	DisableRetries bool   `env:"DEFERLINK_DISABLE_RETRIES" envDefault:"false"`

	// StateFile is where attribution state persists when Redis is not
	// configured. Defaults to ~/.deferlink/state.json.
	StateFile string `env:"DEFERLINK_STATE_FILE" envDefault:""`
	// RedisURL, when set, switches state persistence to Redis.
	RedisURL string `env:"DEFERLINK_REDIS_URL" envDefault:""`
}

// loadConfig parses environment variables.
func loadConfig() (*cliConfig, error) {
	cfg := &cliConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// newStore picks the persistence backend: Redis when configured, else a
// state file.
func (c *cliConfig) newStore(ctx context.Context) (storage.Store, func(), error) {
	if c.RedisURL != "" {
		store, err := storage.NewRedis(ctx, c.RedisURL, "")
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}

	path := c.StateFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".deferlink", "state.json")
	}
	store, err := storage.NewFile(path)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

// newClient builds and configures the SDK client.
func (c *cliConfig) newClient(ctx context.Context) (*deferlink.Client, func(), error) {
	store, cleanup, err := c.newStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	level := logging.ParseLevel(c.LogLevel)
	client := deferlink.New(
		deferlink.WithStorage(store),
		deferlink.WithLogger(logging.NewSlog(level)),
	)
	err = client.Configure(deferlink.Config{
		ClientKey:      c.ClientKey,
		BaseURL:        c.BaseURL,
		LogLevel:       level,
		AllowSimulator: c.AllowSimulator,
		DisableRetries: c.DisableRetries,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, cleanup, nil
}
