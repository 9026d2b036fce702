// Package config loads runtime configuration from the environment.
package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// Config holds everything the scheduler provides via the environment.
type Config struct {
	// Org is the organization whose public repositories are watched.
	Org string `env:"ORG_NAME, default=netresearch"`
	// GitHubToken authenticates repository listing and metric fetches.
	GitHubToken string `env:"GITHUB_TOKEN, required"`
	// MatrixWebhookURL receives one message per notification event.
	MatrixWebhookURL string `env:"MATRIX_WEBHOOK_URL"`
	// StateFile is where the snapshot artifact is persisted between runs.
	StateFile string `env:"STATE_FILE, default=state/org-watch.json"`
	// FetchConcurrency bounds the number of repositories fetched in parallel.
	FetchConcurrency int `env:"FETCH_CONCURRENCY, default=4"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
