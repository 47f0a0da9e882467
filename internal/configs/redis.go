package config

import (
	"github.com/redis/rueidis"
)

// NewRedisClient connects to the shared board store. Client-side caching is
// off: the board hash is rewritten wholesale on every push.
func NewRedisClient(cfg Config) (rueidis.Client, error) {
	return rueidis.NewClient(
		rueidis.ClientOption{
			InitAddress:  []string{cfg.RedisAddr},
			Password:     cfg.RedisPassword,
			SelectDB:     cfg.RedisDB,
			DisableCache: true,
		},
	)
}
