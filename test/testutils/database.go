// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/persistence/migrations"
)

// TestDatabase is a migrated PostgreSQL instance running in a container
type TestDatabase struct {
	Container testcontainers.Container
	DB        *sql.DB
	GormDB    *gorm.DB
	URL       string
	t         *testing.T
}

// DatabaseConfig holds test database configuration
type DatabaseConfig struct {
	Image    string
	Database string
	Username string
	Password string
	Port     nat.Port
}

// DefaultDatabaseConfig returns the default test database configuration
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Image:    "postgres:15-alpine",
		Database: "dietcoach_test",
		Username: "test_user",
		Password: "test_password",
		Port:     "5432/tcp",
	}
}

// SetupTestDatabase starts PostgreSQL and applies the embedded migrations
func SetupTestDatabase(t *testing.T) *TestDatabase {
	return SetupTestDatabaseWithConfig(t, DefaultDatabaseConfig())
}

// SetupTestDatabaseWithConfig creates a test database with custom configuration
func SetupTestDatabaseWithConfig(t *testing.T, cfg DatabaseConfig) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	urlFor := func(host string, port nat.Port) string {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Username, cfg.Password, host, port.Port(), cfg.Database)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.Image,
			ExposedPorts: []string{string(cfg.Port)},
			Env: map[string]string{
				"POSTGRES_DB":       cfg.Database,
				"POSTGRES_USER":     cfg.Username,
				"POSTGRES_PASSWORD": cfg.Password,
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
				wait.ForSQL(cfg.Port, "pgx", urlFor),
			),
			Tmpfs: map[string]string{
				"/var/lib/postgresql/data": "rw",
			},
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start postgres container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, cfg.Port)
	require.NoError(t, err)
	url := urlFor(host, port)

	db, err := migrations.OpenDB(url)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, db.PingContext(ctx), "Failed to ping test database")

	gormDB, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err, "Failed to create GORM connection")

	td := &TestDatabase{
		Container: container,
		DB:        db,
		GormDB:    gormDB,
		URL:       url,
		t:         t,
	}
	t.Cleanup(td.Cleanup)

	require.NoError(t, td.RunMigrations(cfg.Database))
	return td
}

// RunMigrations applies every embedded migration
func (td *TestDatabase) RunMigrations(database string) error {
	m, err := migrations.New(td.DB, database, zap.NewNop())
	if err != nil {
		return err
	}
	return m.Up()
}

// TruncateAllTables empties every application table
func (td *TestDatabase) TruncateAllTables() error {
	return td.GormDB.Exec(
		"TRUNCATE TABLE meals, meal_plans, weekly_intents, preferences, macro_profiles, recipes CASCADE",
	).Error
}

// Cleanup closes connections and terminates the container
func (td *TestDatabase) Cleanup() {
	if sqlDB, err := td.GormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = td.DB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := td.Container.Terminate(ctx); err != nil {
		td.t.Logf("Failed to terminate postgres container: %v", err)
	}
}
