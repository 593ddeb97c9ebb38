// Package testutil starts the backing services used by journal integration
// tests. Every helper skips the calling test when no container runtime is
// available.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// service lazily starts one container per test binary.
type service struct {
	once     sync.Once
	endpoint string
	err      error
}

var (
	postgres service
	redis    service
	mongo    service
)

func (s *service) start(t *testing.T, image string, build func(ctx context.Context) (testcontainers.Container, error), format func(endpoint string) string) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	s.once.Do(func() {
		// Give generous timeout in CI environments
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		c, err := build(ctx)
		if err != nil {
			s.err = fmt.Errorf("start %s: %w", image, err)
			return
		}

		t.Cleanup(func() {
			testcontainers.CleanupContainer(t, c)
		})

		endpoint, err := c.Endpoint(ctx, "")
		if err != nil {
			s.err = fmt.Errorf("endpoint of %s: %w", image, err)
			return
		}
		s.endpoint = format(endpoint)
	})

	if s.err != nil {
		t.Fatalf("testutil: %v", s.err)
	}
	return s.endpoint
}

// GetPostgresDSN returns a DSN for a throwaway PostgreSQL database. The
// caller must register the "pgx" driver.
func GetPostgresDSN(t *testing.T) string {
	t.Helper()
	const image = "postgres:16"
	return postgres.start(t, image,
		func(ctx context.Context) (testcontainers.Container, error) {
			return testcontainers.Run(
				ctx, image,
				testcontainers.WithExposedPorts("5432/tcp"),
				testcontainers.WithWaitStrategy(
					wait.ForAll(
						wait.ForListeningPort("5432/tcp"),
						wait.ForLog("ready to accept connections"),
						// Verify SQL connectivity using the mapped host:port.
						wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
							return fmt.Sprintf("postgres://waypoint:waypoint@%s:%s/waypoint_test?sslmode=disable", host, port.Port())
						}).WithQuery("SELECT 1"),
					).WithDeadline(2*time.Minute),
				),
				testcontainers.WithEnv(map[string]string{
					"POSTGRES_USER":     "waypoint",
					"POSTGRES_PASSWORD": "waypoint",
					"POSTGRES_DB":       "waypoint_test",
				}),
			)
		},
		func(endpoint string) string {
			return fmt.Sprintf("postgres://waypoint:waypoint@%s/waypoint_test?sslmode=disable", endpoint)
		},
	)
}

// GetRedisAddress returns the host:port of a throwaway Redis server.
func GetRedisAddress(t *testing.T) string {
	t.Helper()
	const image = "redis:7"
	return redis.start(t, image,
		func(ctx context.Context) (testcontainers.Container, error) {
			return testcontainers.Run(
				ctx, image,
				testcontainers.WithExposedPorts("6379/tcp"),
				testcontainers.WithWaitStrategy(
					wait.ForListeningPort("6379/tcp"),
					wait.ForLog("Ready to accept connections"),
				),
			)
		},
		func(endpoint string) string { return endpoint },
	)
}

// GetMongoURI returns a connection URI for a throwaway MongoDB server.
func GetMongoURI(t *testing.T) string {
	t.Helper()
	const image = "mongo:7"
	return mongo.start(t, image,
		func(ctx context.Context) (testcontainers.Container, error) {
			return testcontainers.Run(
				ctx, image,
				testcontainers.WithExposedPorts("27017/tcp"),
				testcontainers.WithWaitStrategy(
					wait.ForListeningPort("27017/tcp"),
					wait.ForLog("Waiting for connections"),
				),
			)
		},
		func(endpoint string) string { return "mongodb://" + endpoint },
	)
}
