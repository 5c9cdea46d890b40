package cache

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is nil when the report cache is disabled or unreachable.
var Client *redis.Client

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects to addr. An empty addr disables the cache; a bad URL or a
// failed ping is logged and also leaves the cache disabled.
func InitRedis(ctx context.Context, addr string) {
	Client = nil
	if addr == "" {
		return
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			log.Printf("failed to parse REDIS_URL, cache disabled: %v", err)
			return
		}
		opts = parsed
	}

	client := newRedisClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pingRedis(pingCtx, client); err != nil {
		log.Printf("failed to connect to Redis, cache disabled: %v", err)
		_ = client.Close()
		return
	}
	Client = client
	log.Println("Connected to Redis")
}

func Close() {
	if Client == nil {
		return
	}
	if err := Client.Close(); err != nil {
		log.Printf("error closing Redis client: %v", err)
	}
	Client = nil
}
