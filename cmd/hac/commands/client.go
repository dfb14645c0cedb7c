package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fivetwenty-io/hac/internal/auth"
	"github.com/fivetwenty-io/hac/pkg/hac"
	"github.com/fivetwenty-io/hac/pkg/hacclient"
	"github.com/fivetwenty-io/hac/pkg/managed"
)

// newRoot builds the root chain from the CLI configuration. The managed
// engine is only created when withEngine is set.
func newRoot(ctx context.Context, config *Config, withEngine bool) (hac.Node, error) {
	logger := newConsoleLogger(config.Verbose, config.NoColor)

	clientConfig := &hac.Config{
		BaseURL: config.BaseURL,
		Headers: config.Headers,
		Timeout: config.Timeout,
		Debug:   config.Verbose,
		Logger:  logger,
	}

	if config.Token != "" {
		clientConfig.HeaderResolver = auth.BearerResolver(auth.NewStaticTokenManager(config.Token, time.Time{}))
	}

	var engine hac.Engine

	if withEngine {
		managedEngine, err := managed.New(ctx, &managed.Config{
			BaseURL:     config.BaseURL,
			CacheConfig: config.Cache,
			Timeout:     config.Timeout,
			Logger:      logger,
			Debug:       config.Verbose,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create managed engine: %w", err)
		}

		engine = managedEngine
	}

	return hacclient.New(engine, clientConfig)
}
