// Package cmd provides common initialization functions for the Carelane
// binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/carelane/carelane/pkg/persistence"
	"github.com/carelane/carelane/pkg/persistence/memory"
	"github.com/carelane/carelane/pkg/persistence/postgresql"
)

// NewPersistence selects a storage backend from the database URL scheme:
// postgres for real deployments, memory for local development and tests.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic("failed to initialize postgres persistence: " + err.Error())
		}

		return p
	case databaseURL == "" || strings.HasPrefix(databaseURL, "memory://"):
		logger.WarnContext(ctx, "using in-memory persistence, data will not survive restarts")

		return memory.NewPersistence()
	default:
		panic("unsupported database URL: " + databaseURL)
	}
}
