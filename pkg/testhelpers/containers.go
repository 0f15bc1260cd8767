package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ekaya-inc/author-merge/pkg/config"
)

const (
	// MySQLImage is the server image for MySQL integration tests. Window
	// functions need 8.0 or later.
	MySQLImage = "mysql:8.0"
	// PostgresImage is the server image for PostgreSQL integration tests.
	PostgresImage = "postgres:17-alpine"

	testDatabase = "library"
	testUser     = "merge"
	testPassword = "test_password"
)

// TestStore is a running database container and the config that reaches it.
type TestStore struct {
	Container testcontainers.Container
	Config    config.DatabaseConfig
}

var (
	sharedMySQL     *TestStore
	sharedMySQLOnce sync.Once
	sharedMySQLErr  error

	sharedPostgres     *TestStore
	sharedPostgresOnce sync.Once
	sharedPostgresErr  error
)

// GetMySQL returns a shared MySQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetMySQL(t *testing.T) *TestStore {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedMySQLOnce.Do(func() {
		sharedMySQL, sharedMySQLErr = startStore(containerSpec{
			dsType: "mysql",
			image:  MySQLImage,
			port:   "3306/tcp",
			env: map[string]string{
				"MYSQL_ROOT_PASSWORD": testPassword,
				"MYSQL_DATABASE":      testDatabase,
				"MYSQL_USER":          testUser,
				"MYSQL_PASSWORD":      testPassword,
			},
			waitFor: wait.ForLog("port: 3306  MySQL Community Server").
				WithStartupTimeout(120 * time.Second),
		})
	})

	if sharedMySQLErr != nil {
		t.Fatalf("Failed to setup MySQL container: %v", sharedMySQLErr)
	}
	return sharedMySQL
}

// GetPostgres returns a shared PostgreSQL container for integration tests.
func GetPostgres(t *testing.T) *TestStore {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedPostgresOnce.Do(func() {
		sharedPostgres, sharedPostgresErr = startStore(containerSpec{
			dsType: "postgres",
			image:  PostgresImage,
			port:   "5432/tcp",
			env: map[string]string{
				"POSTGRES_DB":       testDatabase,
				"POSTGRES_USER":     testUser,
				"POSTGRES_PASSWORD": testPassword,
			},
			// The server restarts once after init; the second line is the real one.
			waitFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		})
	})

	if sharedPostgresErr != nil {
		t.Fatalf("Failed to setup PostgreSQL container: %v", sharedPostgresErr)
	}
	return sharedPostgres
}

type containerSpec struct {
	dsType  string
	image   string
	port    nat.Port
	env     map[string]string
	waitFor wait.Strategy
}

func startStore(spec containerSpec) (*TestStore, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        spec.image,
		ExposedPorts: []string{string(spec.port)},
		Env:          spec.env,
		WaitingFor:   spec.waitFor,
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start %s container: %w", spec.dsType, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, spec.port)
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &TestStore{
		Container: container,
		Config: config.DatabaseConfig{
			Type:         spec.dsType,
			Host:         host,
			Port:         port.Int(),
			User:         testUser,
			Password:     testPassword,
			Database:     testDatabase,
			SSLMode:      "disable",
			MaxOpenConns: 4,
		},
	}, nil
}
