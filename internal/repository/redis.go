package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/config"
	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	Client *redis.Client
	now    func() time.Time
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisClientFrom(rdb), nil
}

// NewRedisClientFrom wraps an already configured client.
func NewRedisClientFrom(rdb *redis.Client) *RedisClient {
	return &RedisClient{Client: rdb, now: time.Now}
}

// GetDaily implements service.ActivityCounters.
func (r *RedisClient) GetDaily(ctx context.Context, venue string, kind model.ActivityKind) (int64, uint64, error) {
	keyCount, keyAmount := r.dailyKeys(venue, kind)

	pipe := r.Client.Pipeline()
	countCmd := pipe.Get(ctx, keyCount)
	amountCmd := pipe.Get(ctx, keyAmount)
	_, err := pipe.Exec(ctx)

	if err != nil && err != redis.Nil {
		return 0, 0, err
	}

	count, _ := countCmd.Int64()
	amount, _ := amountCmd.Uint64()

	return count, amount, nil
}

func (r *RedisClient) AddDaily(ctx context.Context, venue string, kind model.ActivityKind, n int64, amount uint64) error {
	keyCount, keyAmount := r.dailyKeys(venue, kind)

	pipe := r.Client.Pipeline()
	pipe.IncrBy(ctx, keyCount, n)
	if amount > 0 {
		pipe.IncrBy(ctx, keyAmount, int64(amount))
	}
	// 2 days is enough for "today"
	pipe.Expire(ctx, keyCount, 48*time.Hour)
	pipe.Expire(ctx, keyAmount, 48*time.Hour)

	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisClient) dailyKeys(venue string, kind model.ActivityKind) (string, string) {
	today := r.now().UTC().Format("2006-01-02")
	base := fmt.Sprintf("activity:%s:%s:%s", venue, today, kind)
	return base + ":count", base + ":amount"
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}
