package containers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer is an empty database for the engine schema.
type PostgresContainer struct {
	*postgres.PostgresContainer
	// DSN is a libpq URL accepted by both pgx and golang-migrate.
	DSN string
}

// NewPostgresContainer starts PostgreSQL and waits until it accepts connections.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	c, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("zte_test"),
		postgres.WithUsername("zte"),
		postgres.WithPassword("zte"),
		testcontainers.WithWaitStrategy(
			// the server restarts once after init, so wait for the second ready line
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	return &PostgresContainer{PostgresContainer: c, DSN: dsn}, nil
}

// RunPostgres starts a database that lives as long as the test.
func RunPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	return start(t, "postgres", NewPostgresContainer)
}
