package database

import (
	"context"
	"log/slog"
	"testing"
	"ticketdesk/internal/config"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestMySqlIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping MySQL integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mysql:8.4",
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "secret",
				"MYSQL_DATABASE":      "ticketdesk",
			},
			// the entrypoint starts a temporary server first
			WaitingFor: wait.ForLog("ready for connections").WithOccurrence(2),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start MySQL container: %v", err)
	}
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306")
	require.NoError(t, err)

	conf := &config.Config{
		MySql: config.MySqlConfig{
			HostName: host,
			Port:     port.Port(),
			UserName: "root",
			Password: "secret",
			Database: "ticketdesk",
			Prefix:   "td_",
		},
	}
	store, err := NewSQLClient(ctx, conf, slog.Default())
	require.NoError(t, err)
	defer store.Close(ctx)

	testStore(t, store)
}
