// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reflexhq/reflex/pkg/persistence"
	"github.com/reflexhq/reflex/pkg/persistence/file"
	"github.com/reflexhq/reflex/pkg/persistence/postgresql"
)

// NewPersistence picks the storage backend from the URL scheme. Anything
// that is not postgres falls back to the file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgresql persistence: %w", err)
		}

		return store, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
