package transcript

import (
	"context"
	"strings"
)

// NewStore creates a postgres-backed store when configured, otherwise a
// bounded in-memory one.
func NewStore(ctx context.Context, databaseURL string, retain int) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(retain), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
