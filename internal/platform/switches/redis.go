package switches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "switch:"

// Redis reads switches stored as plain string keys, e.g. SET switch:<name> on.
type Redis struct {
	rdb    goredis.Cmdable
	prefix string
}

func NewRedis(rdb goredis.Cmdable, prefix string) *Redis {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

// DialRedis connects and pings once so misconfiguration fails at startup.
func DialRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (r *Redis) Lookup(ctx context.Context, name string) (bool, bool, error) {
	if r == nil || r.rdb == nil {
		return false, false, fmt.Errorf("redis switch provider not initialized")
	}
	raw, err := r.rdb.Get(ctx, r.prefix+name).Result()
	if errors.Is(err, goredis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("redis get switch %q: %w", name, err)
	}
	return Truthy(raw), true, nil
}

// Set writes the switch value. Used by operators and integration tests.
func (r *Redis) Set(ctx context.Context, name string, active bool) error {
	val := "off"
	if active {
		val = "on"
	}
	return r.rdb.Set(ctx, r.prefix+name, val, 0).Err()
}
