package redis_di

import (
	"context"

	"github.com/lintang-b-s/osm-geoenrich/pkg/di/config"
	"github.com/lintang-b-s/osm-geoenrich/pkg/stream/redistream"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	client := redistream.Open(redistream.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis not reachable yet, the stream enricher will retry",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		_ = client.Close()
	}()

	return client, nil
}
