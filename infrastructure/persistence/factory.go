// Package persistence selects and wires a storage backend at startup.
// Both backends implement the same repository contracts and are expected
// to behave identically; callers never branch on the provider after this
// point.
package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/infrastructure/config"
	"idp-backend/infrastructure/persistence/dynamodb"
	"idp-backend/infrastructure/persistence/postgres"
)

// Open builds the repository set for the configured provider. The
// returned close function releases backend resources and is safe to call
// once on shutdown.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ports.Repositories, func() error, error) {
	switch cfg.DatabaseProvider {
	case config.ProviderDynamoDB:
		client, err := dynamodb.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create dynamodb client: %w", err)
		}
		repos := dynamodb.NewRepositories(client, dynamodb.NewTables(cfg.TablePrefix), logger)
		return repos, func() error { return nil }, nil

	case config.ProviderPostgres:
		db, err := postgres.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repos := postgres.NewRepositories(db, logger)
		return repos, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown database provider %q", cfg.DatabaseProvider)
	}
}
