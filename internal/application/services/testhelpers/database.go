// Package testhelpers spins up a throwaway Postgres for integration tests.
package testhelpers

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/minhlq/charterdesk/internal/config"
	"github.com/minhlq/charterdesk/internal/infrastructure/persistence/postgres"
)

const (
	dbUser = "charterdesk"
	dbPass = "charterdesk"
	dbName = "charterdesk_test"
)

type TestDatabase struct {
	Container testcontainers.Container
	DB        *postgres.DB
	Config    *config.DatabaseConfig
}

// SetupTestDatabase starts a postgres container, connects a pool and applies
// the schema. Callers own teardown via Cleanup.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     dbUser,
				"POSTGRES_PASSWORD": dbPass,
				"POSTGRES_DB":       dbName,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := &config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            dbUser,
		Password:        dbPass,
		Name:            dbName,
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := postgres.Connect(ctx, cfg, quiet)
	require.NoError(t, err)

	require.NoError(t, applySchema(ctx, db))

	return &TestDatabase{Container: container, DB: db, Config: cfg}
}

func (td *TestDatabase) Cleanup(t *testing.T) {
	t.Helper()
	td.DB.Close()
	require.NoError(t, td.Container.Terminate(context.Background()))
}

// CleanTables truncates everything between tests, children first.
func (td *TestDatabase) CleanTables(t *testing.T) {
	t.Helper()
	_, err := td.DB.Pool.Exec(context.Background(),
		"TRUNCATE TABLE booking_rooms, invoices, transactions, bookings RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

func applySchema(ctx context.Context, db *postgres.DB) error {
	_, thisFile, _, _ := runtime.Caller(0)
	root := thisFile
	for i := 0; i < 5; i++ {
		root = filepath.Dir(root)
	}

	schema, err := os.ReadFile(filepath.Join(root, "db", "migrations", "001_init.up.sql"))
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx, string(schema))
	return err
}
