package cmd

import (
	"context"
	"log/slog"

	"github.com/carelane/carelane/pkg/lease"
)

// NewLease returns a Redis-backed lease when a Redis URL is configured, and a
// process-local one otherwise. Multi-instance deployments need Redis so
// concurrent sweeps dedupe across processes.
func NewLease(ctx context.Context, logger *slog.Logger, redisURL string) lease.Lease {
	if redisURL == "" {
		logger.WarnContext(ctx, "no redis URL configured, sweep leases are process-local")

		return lease.NewMemoryLease()
	}

	l, err := lease.NewRedisLease(ctx, redisURL)
	if err != nil {
		panic("failed to connect to redis: " + err.Error())
	}

	return l
}
