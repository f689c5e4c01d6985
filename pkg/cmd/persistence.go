// Package cmd wires providers selected by configuration.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/recipemap/recipemap/pkg/persistence"
	"github.com/recipemap/recipemap/pkg/persistence/file"
	"github.com/recipemap/recipemap/pkg/persistence/postgresql"
)

// NewPersistence opens the store named by the scheme of databaseURL.
// postgres:// and postgresql:// select PostgreSQL, file:// or a bare path selects the file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "file":
		return file.NewPersistence(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported persistence provider: %s", databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	switch scheme {
	case "postgres", "postgresql":
		return "postgresql"
	case "file":
		return "file"
	default:
		return scheme
	}
}
