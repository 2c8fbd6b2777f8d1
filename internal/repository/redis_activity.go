package repository

import (
	"context"
	"encoding/json"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/service"
	"github.com/redis/go-redis/v9"
)

// RedisActivityRepo keeps a capped list of recent activity, newest first.
type RedisActivityRepo struct {
	client  *redis.Client
	listKey string
	listMax int
}

func NewRedisActivityRepo(client *RedisClient, listKey string, listMax int) *RedisActivityRepo {
	if listKey == "" {
		listKey = "auctionbot_activity"
	}
	if listMax <= 0 {
		listMax = 10000
	}
	return &RedisActivityRepo{
		client:  client.Client,
		listKey: listKey,
		listMax: listMax,
	}
}

func (r *RedisActivityRepo) Insert(ctx context.Context, entry *model.ActivityLog) error {
	if entry == nil {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.listKey, payload)
	pipe.LTrim(ctx, r.listKey, 0, int64(r.listMax-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisActivityRepo) List(ctx context.Context, filter service.ActivityFilter) ([]*model.ActivityLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	fetch := limit * 5
	if fetch < 100 {
		fetch = 100
	}
	if fetch > r.listMax {
		fetch = r.listMax
	}
	items, err := r.client.LRange(ctx, r.listKey, 0, int64(fetch-1)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	results := make([]*model.ActivityLog, 0, limit)
	for _, raw := range items {
		var entry model.ActivityLog
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if !filter.Match(&entry) {
			continue
		}
		results = append(results, &entry)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}
