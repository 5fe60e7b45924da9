// Package testutil provides a disposable PostgreSQL instance for tests.
// Component C8 (internal/validate) starts its own container and does
// not use this package.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// postgresImage is pinned so test runs are reproducible; no environment
// variable overrides it.
const postgresImage = "postgres:17-alpine"

// TestPostgres holds connection details for a container-backed instance.
type TestPostgres struct {
	Container *postgres.PostgresContainer
	DSN       string
	Conn      *sql.DB
}

// SetupTestPostgres starts a fresh PostgreSQL container and returns an
// open, pinged connection. Grounded on the teacher's
// testutil.SetupTestPostgres, rewired from embedded-postgres onto
// testcontainers-go's postgres module.
func SetupTestPostgres(ctx context.Context, t *testing.T) *TestPostgres {
	database, username, password := "testdb", "testuser", "testpass"

	ctr, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase(database),
		postgres.WithUsername(username),
		postgres.WithPassword(password),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		failOrPanic(t, fmt.Errorf("failed to start postgres container: %w", err))
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		failOrPanic(t, fmt.Errorf("failed to resolve connection string: %w", err))
	}

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		failOrPanic(t, fmt.Errorf("failed to connect: %w", err))
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		failOrPanic(t, fmt.Errorf("failed to ping: %w", err))
	}

	return &TestPostgres{Container: ctr, DSN: dsn, Conn: conn}
}

// Terminate stops the container and closes the connection.
func (tp *TestPostgres) Terminate(ctx context.Context, t *testing.T) {
	tp.Conn.Close()
	if err := tp.Container.Terminate(ctx); err != nil && t != nil {
		t.Logf("failed to terminate postgres container: %v", err)
	}
}

// ResetSchema drops and recreates a schema, clearing every object in
// it.
func (tp *TestPostgres) ResetSchema(ctx context.Context, schema string) error {
	if _, err := tp.Conn.ExecContext(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %q CASCADE", schema)); err != nil {
		return fmt.Errorf("drop schema %s: %w", schema, err)
	}
	if _, err := tp.Conn.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA %q", schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	return nil
}

func failOrPanic(t *testing.T, err error) {
	if t != nil {
		t.Fatal(err)
		return
	}
	panic(err)
}
