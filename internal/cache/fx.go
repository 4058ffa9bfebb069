package cache

import (
	"github.com/redis/go-redis/v9"
	"github.com/shinertx/jenni-shopify/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("cache",
	fx.Provide(NewStore),
)

// NewStore picks the distributed tier when REDIS_URL is set and parseable,
// otherwise the process-local one.
func NewStore(cfg config.Config, log *zap.Logger) Store {
	if cfg.RedisURL == "" {
		return NewMemory()
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("invalid redis url, using in-process cache", zap.Error(err))
		return NewMemory()
	}
	return NewRedis(redis.NewClient(opts), log)
}
