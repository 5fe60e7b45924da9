package introspect_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/pgdrift/pgdrift/internal/introspect"
	"github.com/pgdrift/pgdrift/testutil"
)

func requireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("PGDRIFT_INTEGRATION") != "1" {
		t.Skip("set PGDRIFT_INTEGRATION=1 to run introspection integration tests")
	}
}

func TestIntrospectTableAndIndex(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	pg := testutil.SetupTestPostgres(ctx, t)
	defer pg.Terminate(ctx, t)

	_, err := pg.Conn.ExecContext(ctx, `
		CREATE TABLE widgets (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX idx_widgets_name ON widgets (name);
	`)
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, pg.DSN)
	require.NoError(t, err)
	defer pool.Close()

	cat, err := introspect.New(pool).Introspect(ctx, []string{"public"})
	require.NoError(t, err)

	schema, ok := cat.Schemas["public"]
	require.True(t, ok, "expected public schema to be introspected")

	table, ok := schema.Tables["widgets"]
	require.True(t, ok, "expected widgets table to be introspected")
	require.Len(t, table.Columns, 3)
	require.NotNil(t, table.PrimaryKey)
	require.Equal(t, []string{"id"}, table.PrimaryKey.Columns)

	_, ok = table.Indexes["idx_widgets_name"]
	require.True(t, ok, "expected idx_widgets_name to be introspected as a non-PK index")
}
