package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS chain_agents (
    name TEXT PRIMARY KEY,
    agent_endpoint TEXT NOT NULL,
    rpc_url TEXT NOT NULL DEFAULT ''
);
`

// LoadPostgres reads the chain table once from PostgreSQL. The pool is closed
// before returning; the registry never goes back to the database.
func LoadPostgres(ctx context.Context, dsn string) ([]Entry, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("ensure chain_agents table: %w", err)
	}

	rows, err := pool.Query(ctx, `
SELECT name, agent_endpoint, rpc_url
FROM chain_agents
ORDER BY name
`)
	if err != nil {
		return nil, fmt.Errorf("query chain_agents: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.AgentEndpoint, &e.RPCURL); err != nil {
			return nil, fmt.Errorf("scan chain_agents: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chain_agents: %w", err)
	}
	return entries, nil
}
