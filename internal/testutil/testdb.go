// Package testutil provides loggers and a PostgreSQL handle for tests
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
)

// TestDB is a connection to the integration database. Tests that need it
// are skipped when no server answers.
type TestDB struct {
	*sql.DB
	t *testing.T
}

// testDSN prefers TEST_DATABASE_URL, then the same DB_* variables the server reads
func testDSN() string {
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		return url
	}

	parts := []struct{ key, env, def string }{
		{"host", "DB_HOST", "localhost"},
		{"port", "DB_PORT", "5432"},
		{"user", "DB_USER", "test"},
		{"password", "DB_PASSWORD", "test"},
		{"dbname", "DB_NAME", "autolot_test"},
		{"sslmode", "DB_SSLMODE", "disable"},
	}
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		v := os.Getenv(p.env)
		if v == "" {
			v = p.def
		}
		fields = append(fields, p.key+"="+v)
	}
	return strings.Join(fields, " ")
}

// NewTestDB connects and registers Close with t.Cleanup. Callers run migrations themselves.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := sql.Open("postgres", testDSN())
	if err != nil {
		t.Skipf("Skipping test: unable to open database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		t.Skipf("Skipping test: unable to connect to database: %v", err)
	}

	tdb := &TestDB{DB: db, t: t}
	t.Cleanup(tdb.close)
	return tdb
}

func (tdb *TestDB) close() {
	if err := tdb.DB.Close(); err != nil {
		tdb.t.Errorf("Failed to close test database: %v", err)
	}
}

// Truncate empties the given tables. Missing tables are logged, not fatal.
func (tdb *TestDB) Truncate(ctx context.Context, tables ...string) {
	tdb.t.Helper()

	for _, table := range tables {
		query := fmt.Sprintf("TRUNCATE TABLE %s", pq.QuoteIdentifier(table))
		if _, err := tdb.ExecContext(ctx, query); err != nil {
			tdb.t.Logf("Warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TableExists reports whether a table is present in the public schema
func (tdb *TestDB) TableExists(ctx context.Context, table string) bool {
	tdb.t.Helper()

	var exists bool
	err := tdb.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
		table,
	).Scan(&exists)
	return err == nil && exists
}
