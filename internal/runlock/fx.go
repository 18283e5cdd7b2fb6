package runlock

import (
	"github.com/apexmed/commission/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// NewClient returns nil when redis is not configured; the locker is
// optional and payout generation falls back to row locking only.
func NewClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

var Module = fx.Module("runlock",
	fx.Provide(
		NewClient,
		NewLocker,
	),
)
