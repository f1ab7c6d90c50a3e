package testing

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer wraps a testcontainers Postgres instance
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DSN       string
}

// NewPostgresContainer starts a disposable Postgres and returns its DSN
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("shipments"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
	}, nil
}

// Close terminates the Postgres container
func (p *PostgresContainer) Close(ctx context.Context) error {
	if p.Container == nil {
		return nil
	}
	return testcontainers.TerminateContainer(p.Container, testcontainers.StopContext(ctx))
}
