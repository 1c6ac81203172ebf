package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/trc-platform/trc/config"
)

// PostgresDSNEnv names the environment variable that enables the PostgreSQL integration tests.
const PostgresDSNEnv = "TRC_TEST_POSTGRES_DSN"

const testMaxConns = 5

// PostgresConfig returns a config pointing at the test database, or skips the test
// when no test database is configured.
func PostgresConfig(t testing.TB) config.Config {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping PostgreSQL integration test", PostgresDSNEnv)
	}

	return config.Config{PostgresDSN: dsn, PostgresMaxConns: testMaxConns}
}

// OpenPGXPool opens a pgx pool on the test database, closed when the test ends.
func OpenPGXPool(t testing.TB) *pgxpool.Pool {
	t.Helper()

	pool, err := PostgresConfig(t).OpenPGXPool(context.Background())
	if err != nil {
		t.Fatalf("opening pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

// OpenSQLDB opens a database/sql pool on the test database, closed when the test ends.
func OpenSQLDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := PostgresConfig(t).OpenSQLDB(context.Background())
	if err != nil {
		t.Fatalf("opening sql.DB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// OpenSQLX opens a sqlx pool on the test database, closed when the test ends.
func OpenSQLX(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := PostgresConfig(t).OpenSQLX(context.Background())
	if err != nil {
		t.Fatalf("opening sqlx.DB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// UniqueTableName returns a fresh table name and drops that table when the test ends.
func UniqueTableName(t testing.TB, pool *pgxpool.Pool) string {
	t.Helper()

	tableName := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	t.Cleanup(func() {
		statement := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tableName}.Sanitize())
		if _, err := pool.Exec(context.Background(), statement); err != nil {
			t.Logf("dropping %s: %v", tableName, err)
		}
	})

	return tableName
}
