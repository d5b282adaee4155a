package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unimap/unimap/config"
)

var (
	redisClient *redis.Client
	redisMu     sync.RWMutex
)

// InitRedis connects the shared Redis client when CACHE_DRIVER=redis and returns it;
// any other driver leaves the client nil.
func InitRedis(cfg config.AppConfig) *redis.Client {
	if cfg.CacheDriver != "redis" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// keep the client; the cache is advisory and calls fail open
		Sugar.Warnf("redis ping failed addr=%s err=%v", client.Options().Addr, err)
	}

	redisMu.Lock()
	redisClient = client
	redisMu.Unlock()
	return client
}

// GetRedis returns the shared Redis client, or nil when Redis is not configured.
// Callers treat nil as "use the in-process fallback".
func GetRedis() *redis.Client {
	redisMu.RLock()
	defer redisMu.RUnlock()
	return redisClient
}
