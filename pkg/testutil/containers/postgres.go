//go:build integration

// Package containers manages shared test containers for integration tests.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema mirrors the tables the Postgres stores expect.
const schema = `
CREATE TABLE IF NOT EXISTS persons (
    id           BIGINT PRIMARY KEY,
    primary_name TEXT NOT NULL,
    sex          TEXT,
    birth_date   DATE,
    death_date   DATE,
    valid_from   DATE NOT NULL,
    valid_to     DATE
);

CREATE TABLE IF NOT EXISTS relationships (
    id                BIGINT PRIMARY KEY,
    relationship_type TEXT NOT NULL,
    left_entity_type  TEXT NOT NULL,
    left_entity_id    BIGINT NOT NULL,
    right_entity_type TEXT NOT NULL,
    right_entity_id   BIGINT NOT NULL,
    valid_from        DATE NOT NULL,
    valid_to          DATE,
    source_ids        BIGINT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_relationships_left ON relationships (left_entity_id);
CREATE INDEX IF NOT EXISTS idx_relationships_right ON relationships (right_entity_id);
`

// PostgresContainer wraps a testcontainers Postgres instance with an open pool.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// Manager owns one container shared across suites in a test binary. Ryuk
// reclaims the container after the run, so no t.Cleanup is registered.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
}

var manager = &Manager{}

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	return manager
}

// GetPostgres starts the shared Postgres container on first use and applies
// the schema.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.postgres != nil {
		return m.postgres
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("stemma_test"),
		tcpostgres.WithUsername("stemma"),
		tcpostgres.WithPassword("stemma"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres pool: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	m.postgres = &PostgresContainer{Container: container, DSN: dsn, DB: db}
	return m.postgres
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx,
		fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}
