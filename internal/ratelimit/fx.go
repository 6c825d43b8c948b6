package ratelimit

import (
	"github.com/elclub/paquetes/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

var Module = fx.Module("ratelimit",
	fx.Provide(
		newRedisClient,
		NewLocker,
	),
)
