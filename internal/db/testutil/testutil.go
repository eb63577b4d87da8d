// Package testutil starts throwaway PostgreSQL instances for repository tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	postgresImage = "postgres:17-alpine"
	testDatabase  = "opportunity_finder_test"
	testUser      = "test"
	testPassword  = "test"
)

// tables lists every table the migrations create.
var tables = []string{"channels", "search_history", "api_quota_usage"}

// TestDatabase is a migrated PostgreSQL container and a pool connected to it.
type TestDatabase struct {
	Pool    *pgxpool.Pool
	ConnStr string
}

// SetupTestDatabase starts a container, applies all migrations and returns
// a connected pool. The pool and container are released when t finishes.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()

	ctr, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUser),
		postgres.WithPassword(testPassword),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://"+migrationsDir(t), connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	srcErr, dbErr := m.Close()
	require.NoError(t, srcErr)
	require.NoError(t, dbErr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx))

	return &TestDatabase{Pool: pool, ConnStr: connStr}
}

// TruncateTables empties every table for test isolation.
func (td *TestDatabase) TruncateTables(t *testing.T) {
	t.Helper()

	query := "TRUNCATE TABLE "
	for i, name := range tables {
		if i > 0 {
			query += ", "
		}
		query += name
	}
	query += " RESTART IDENTITY CASCADE"

	_, err := td.Pool.Exec(context.Background(), query)
	require.NoError(t, err)
}

// migrationsDir locates the repository's migrations directory relative to
// this file, so callers at any package depth can use it.
func migrationsDir(t *testing.T) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("testutil: cannot resolve source path")
	}
	dir, err := filepath.Abs(filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations"))
	require.NoError(t, err, fmt.Sprintf("resolve migrations from %s", file))
	return dir
}
