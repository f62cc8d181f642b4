package database

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"ticketdesk/internal/config"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestMongoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping MongoDB integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start MongoDB container: %v", err)
	}
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	conf := &config.Config{
		Mongo: config.MongoConfig{
			Uri:      fmt.Sprintf("mongodb://%s:%s", host, port.Port()),
			Database: "ticketdesk_test",
		},
	}
	store, err := NewMongoClient(ctx, conf, slog.Default())
	require.NoError(t, err)
	defer store.Close(ctx)

	testStore(t, store)
}
