package registry

import (
	"context"
	"fmt"
)

// Load builds the registry from the named source: "default" (or empty),
// "file" or "postgres".
func Load(ctx context.Context, source, path, dsn string) (*Registry, error) {
	var (
		entries []Entry
		err     error
	)
	switch source {
	case "", "default":
		entries = Defaults()
	case "file":
		entries, err = LoadFile(path)
	case "postgres":
		entries, err = LoadPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown registry source %q", source)
	}
	if err != nil {
		return nil, err
	}
	return New(entries)
}
