package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/planweave/planweave/pkg/persistence"
	"github.com/planweave/planweave/pkg/persistence/file"
	"github.com/planweave/planweave/pkg/persistence/postgresql"
)

// NewPersistence creates a storage backend from a database URL. postgres://
// and postgresql:// select PostgreSQL; anything else is treated as a
// filesystem root (with or without a file:// prefix).
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgresql persistence: %w", err)
		}

		return store, nil
	default:
		store, err := file.NewPersistence(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file persistence: %w", err)
		}

		return store, nil
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
	default:
		return "file"
	}
}
