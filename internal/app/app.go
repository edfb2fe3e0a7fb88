// Package app builds the shared dependencies of the binaries from config.
package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/ehr-booking/internal/config"
	"github.com/jwalitptl/ehr-booking/internal/repository"
	"github.com/jwalitptl/ehr-booking/internal/repository/memory"
	"github.com/jwalitptl/ehr-booking/internal/repository/postgres"
	"github.com/jwalitptl/ehr-booking/pkg/lock"
	"github.com/jwalitptl/ehr-booking/pkg/messaging/redis"
)

// OpenStore opens the configured store. The returned close func is never nil.
func OpenStore(cfg *config.Config, logger zerolog.Logger) (repository.Store, func() error, error) {
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn().Msg("using in-memory store; data is lost on exit")
		return memory.NewStore(), func() error { return nil }, nil
	case config.StorePostgres:
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(db), db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// OpenRedis connects when a Redis URL is configured and returns nil otherwise.
func OpenRedis(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	if cfg.Redis.URL == "" {
		return nil, nil
	}
	return redis.NewClient(ctx, cfg.Redis.ToClientConfig())
}

// SlotLocker returns the Redis slot lock when enabled, else a no-op lock.
func SlotLocker(cfg *config.Config, client *goredis.Client) lock.SlotLocker {
	if !cfg.Booking.SlotLockEnabled || client == nil {
		return lock.NoopSlotLocker()
	}
	return lock.NewRedisSlotLocker(client, cfg.Booking.SlotLockTTL)
}
