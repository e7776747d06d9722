package db

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/redis/go-redis/v9"

	"github.com/romiluz13/Studio-Oscar/internal/config"
)

const redisPingTimeout = 2 * time.Second

// ConnectRedis returns a client for the change channel and the draft slots,
// or nil when Redis is not configured or does not answer. A nil client keeps
// change notices in-process and disables drafts.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		glog.Warningf("redis at %s unreachable, running without it: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return nil
	}
	return client
}
