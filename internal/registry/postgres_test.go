package registry

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestLoadPostgres(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// first load creates the table
	_, err := LoadPostgres(ctx, dsn)
	require.NoError(t, err)

	conn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, `
INSERT INTO chain_agents (name, agent_endpoint, rpc_url)
VALUES ('TestChain', 'http://127.0.0.1:6100', '')
ON CONFLICT (name) DO UPDATE SET agent_endpoint = EXCLUDED.agent_endpoint
`)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), `DELETE FROM chain_agents WHERE name = 'TestChain'`)
	})

	entries, err := LoadPostgres(ctx, dsn)
	require.NoError(t, err)

	var found bool
	for _, e := range entries {
		if e.Name == "TestChain" {
			found = true
			require.Equal(t, "http://127.0.0.1:6100", e.AgentEndpoint)
		}
	}
	require.True(t, found, "expected TestChain in %+v", entries)
}

func TestLoadPostgresEmptyDSN(t *testing.T) {
	_, err := LoadPostgres(context.Background(), "")
	require.Error(t, err)
}
