package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	goredis "github.com/go-redis/redis/v8"

	"github.com/joeecarter/heart-readings-server/reading"
)

type RedisConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

// RedisReadingStore keeps every reading as a JSON field of one hash keyed by id.
type RedisReadingStore struct {
	client *goredis.Client
	key    string
}

func NewRedisReadingStore(ctx context.Context, config RedisConfig) (*RedisReadingStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisReadingStoreWithClient(client, config.KeyPrefix), nil
}

func NewRedisReadingStoreWithClient(client *goredis.Client, keyPrefix string) *RedisReadingStore {
	if keyPrefix == "" {
		keyPrefix = "heart:"
	}
	return &RedisReadingStore{client: client, key: keyPrefix + "readings"}
}

func (store *RedisReadingStore) Name() string {
	return "redis"
}

func (store *RedisReadingStore) Store(ctx context.Context, readings []*reading.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(readings)*2)
	for _, r := range readings {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode reading %s: %w", r.ID, err)
		}
		values = append(values, r.ID, b)
	}
	if err := store.client.HSet(ctx, store.key, values...).Err(); err != nil {
		return fmt.Errorf("failed to store readings: %w", err)
	}
	return nil
}

func (store *RedisReadingStore) List(ctx context.Context) ([]*reading.Reading, error) {
	all, err := store.client.HGetAll(ctx, store.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}

	readings := make([]*reading.Reading, 0, len(all))
	for id, raw := range all {
		var r reading.Reading
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("failed to decode reading %s: %w", id, err)
		}
		readings = append(readings, &r)
	}
	// Hash iteration order is random; date then id keeps List deterministic.
	slices.SortFunc(readings, func(a, b *reading.Reading) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return readings, nil
}

func (store *RedisReadingStore) Get(ctx context.Context, id string) (*reading.Reading, error) {
	raw, err := store.client.HGet(ctx, store.key, id).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, reading.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reading %s: %w", id, err)
	}

	var r reading.Reading
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("failed to decode reading %s: %w", id, err)
	}
	return &r, nil
}

func (store *RedisReadingStore) Close() error {
	return store.client.Close()
}
