// Package dbtest starts disposable PostgreSQL containers for integration tests.
package dbtest

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/food-health-score-server/internal/database"
)

// StartPostgres starts a disposable PostgreSQL container and returns its
// connection config plus a terminate function.
func StartPostgres(ctx context.Context) (database.Config, func(), error) {
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return database.Config{}, nil, fmt.Errorf("starting PostgreSQL container: %w", err)
	}
	terminate := func() { _ = pgContainer.Terminate(ctx) }

	host, err := pgContainer.Host(ctx)
	if err != nil {
		terminate()
		return database.Config{}, nil, fmt.Errorf("getting container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		terminate()
		return database.Config{}, nil, fmt.Errorf("getting container port: %w", err)
	}

	return database.Config{
		Host:        host,
		Port:        port.Int(),
		Database:    "testdb",
		Username:    "testuser",
		Password:    "testpass",
		MaxConns:    10,
		MinConns:    2,
		MaxConnLife: time.Hour,
		MaxConnIdle: time.Minute * 30,
		SSLMode:     "disable",
	}, terminate, nil
}
