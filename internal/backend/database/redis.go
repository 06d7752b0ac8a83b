package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix     = "cropdoctor:prediction:"
	redisTimelineKey   = "cropdoctor:predictions"
	redisDefaultScheme = "redis://"
)

// RedisDatabase keeps each record as a JSON string and orders them in a
// sorted set scored by creation time.
type RedisDatabase struct {
	client *redis.Client
}

// NewRedisDatabase accepts a redis:// URL or a bare host:port address.
func NewRedisDatabase(connectionString string) (DatabaseService, error) {
	if !strings.Contains(connectionString, "://") {
		connectionString = redisDefaultScheme + connectionString
	}
	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid redis connection string: %w", err)
	}
	return &RedisDatabase{client: redis.NewClient(opts)}, nil
}

// CreateDatabase only verifies connectivity; redis needs no schema.
func (r *RedisDatabase) CreateDatabase(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisDatabase) DoesDatabaseExist(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

func (r *RedisDatabase) Close() error {
	return r.client.Close()
}

func (r *RedisDatabase) CreatePrediction(ctx context.Context, record *PredictionRecord) error {
	prepareRecord(record)

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode prediction %s: %w", record.ID, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKeyPrefix+record.ID, payload, 0)
		pipe.ZAdd(ctx, redisTimelineKey, redis.Z{
			Score:  float64(record.CreatedAt.UnixNano()),
			Member: record.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store prediction %s: %w", record.ID, err)
	}
	return nil
}

func (r *RedisDatabase) GetLatestPredictions(ctx context.Context, limit int) ([]*PredictionRecord, error) {
	if limit <= 0 {
		return []*PredictionRecord{}, nil
	}

	ids, err := r.client.ZRevRange(ctx, redisTimelineKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*PredictionRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisKeyPrefix + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*PredictionRecord, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// timeline entry without a record; skip it
			continue
		}
		var record PredictionRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("failed to decode prediction %s: %w", ids[i], err)
		}
		records = append(records, &record)
	}
	return records, nil
}

func (r *RedisDatabase) CountPredictions(ctx context.Context) (int, error) {
	n, err := r.client.ZCard(ctx, redisTimelineKey).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
