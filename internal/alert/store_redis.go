package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"idhub/pkg/sentinel"
)

const (
	// Redis key prefix for alert payloads
	alertKeyPrefix = "alert:id:"

	// Sorted set indexing alert IDs by creation time
	alertIndexKey = "alert:index"
)

// RedisStore is a Redis-backed alert store. This is the recommended
// implementation for distributed deployments where multiple instances need to
// share alert state.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed alert store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, a *Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, alertKeyPrefix+a.ID, payload, 0)
	pipe.ZAdd(ctx, alertIndexKey, redis.Z{
		Score:  float64(a.CreatedAt.UnixNano()),
		Member: a.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Alert, error) {
	payload, err := s.client.Get(ctx, alertKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get alert: %w", err)
	}

	var a Alert
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("unmarshal alert: %w", err)
	}
	return &a, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*Alert, error) {
	ids, err := s.client.ZRevRange(ctx, alertIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list alert index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = alertKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	alerts := make([]*Alert, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a payload, e.g. a partially deleted alert.
			continue
		}
		var a Alert
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, fmt.Errorf("unmarshal alert: %w", err)
		}
		alerts = append(alerts, &a)
	}
	return alerts, nil
}
