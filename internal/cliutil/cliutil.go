// Package cliutil holds the small pieces cmd/pgdrift's subcommands
// share: logger setup and the DSN/environment plumbing, grounded on
// the teacher's cmd/root.go (setupLogger, platform()) and
// cmd/util/connection.go's env-driven DSN assembly.
package cliutil

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pgdrift/pgdrift/internal/logger"
)

// SetupLogger installs the process-wide slog.Logger, mirroring the
// teacher's PersistentPreRun hook: --debug lowers the level and turns
// on source locations.
func SetupLogger(debug bool) {
	level := slog.LevelInfo
	opts := &slog.HandlerOptions{Level: level}
	if debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	logger.SetGlobal(slog.New(slog.NewTextHandler(os.Stderr, opts)), debug)
}

// DSN resolves a connection string from an explicit flag value,
// falling back to PGDRIFT_DSN, then to discrete PGHOST/PGPORT/PGUSER/
// PGPASSWORD/PGDATABASE components (libpq's own env var names, which
// the teacher's cmd/util/connection.go also defers to).
func DSN(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv("PGDRIFT_DSN"); v != "" {
		return v, nil
	}
	host := envOr("PGHOST", "localhost")
	port := envOr("PGPORT", "5432")
	user := envOr("PGUSER", "postgres")
	password := os.Getenv("PGPASSWORD")
	dbname := envOr("PGDATABASE", "postgres")

	if password == "" {
		return "", fmt.Errorf("cliutil: no --dsn given and PGPASSWORD is unset")
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// IsProduction mirrors internal/lint's PGDRIFT_PROD check, exposed
// here so the CLI can warn before even building a plan.
func IsProduction() bool {
	return os.Getenv("PGDRIFT_PROD") == "1"
}
