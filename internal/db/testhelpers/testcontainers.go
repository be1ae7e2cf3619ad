package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ajitpratap0/clinicalnlp/internal/db"
)

// PostgresContainer holds the testcontainer instance and connection details
type PostgresContainer struct {
	Container     *postgres.PostgresContainer
	ConnectionStr string
	DB            *db.DB
	t             *testing.T
}

// SetupTestDatabase starts a PostgreSQL container. The test is skipped in
// short mode or when no container provider is available.
func SetupTestDatabase(t *testing.T) *PostgresContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("clinicalnlp_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("Failed to get connection string: %v", err)
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	config.MaxConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("Failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("Failed to ping database: %v", err)
	}

	tc := &PostgresContainer{
		Container:     container,
		ConnectionStr: connStr,
		DB:            db.NewFromPool(pool),
		t:             t,
	}

	t.Cleanup(tc.Cleanup)

	return tc
}

// ApplyMigrations runs the up migrations found in migrationsPath
func (tc *PostgresContainer) ApplyMigrations(migrationsPath string) error {
	tc.t.Helper()

	migrations, err := db.LoadMigrations(os.DirFS(migrationsPath))
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, m := range migrations {
		tc.t.Logf("Applying migration: %s", m.Filename)
		if _, err := tc.DB.Pool().Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.Filename, err)
		}
	}

	return nil
}

// Cleanup closes the pool and terminates the container
func (tc *PostgresContainer) Cleanup() {
	tc.DB.Close()
	if err := tc.Container.Terminate(context.Background()); err != nil {
		tc.t.Logf("Failed to terminate container: %v", err)
	}
}
