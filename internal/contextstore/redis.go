package contextstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chart-relay-bot/internal/interfaces"
	"chart-relay-bot/internal/logger"
	"chart-relay-bot/internal/types"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the market context under a single key. SET replaces the
// value atomically, so readers see either the old or the new context.
// Useful where the local disk does not survive restarts.
type RedisStore struct {
	client *redis.Client
	key    string
	maxAge time.Duration
}

var _ interfaces.ContextStore = (*RedisStore)(nil)

type redisRecord struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRedisStore connects using a redis:// URL.
func NewRedisStore(url, key string, maxAge time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStoreWithOptions(opts, key, maxAge), nil
}

func NewRedisStoreWithOptions(opts *redis.Options, key string, maxAge time.Duration) *RedisStore {
	return &RedisStore{client: redis.NewClient(opts), key: key, maxAge: maxAge}
}

// Ping checks connectivity at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Save(ctx context.Context, text string) error {
	data, err := json.Marshal(redisRecord{Text: text, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return &types.PersistError{Op: "save", Path: s.String(), Err: err}
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return &types.PersistError{Op: "save", Path: s.String(), Err: err}
	}
	logger.Info(ctx, "Market context saved", "store", s.String(), "bytes", len(text))
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (types.MarketContext, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.MarketContext{}, false, nil
	}
	if err != nil {
		return types.MarketContext{}, false, &types.PersistError{Op: "load", Path: s.String(), Err: err}
	}

	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return types.MarketContext{}, false, &types.PersistError{Op: "load", Path: s.String(), Err: err}
	}

	if age := time.Since(rec.UpdatedAt); s.maxAge > 0 && age > s.maxAge {
		logger.Warn(ctx, "Market context is stale",
			"store", s.String(),
			"age", age.Round(time.Second).String(),
			"max_age", s.maxAge.String(),
		)
	}
	return types.MarketContext{Text: rec.Text, UpdatedAt: rec.UpdatedAt}, true, nil
}

func (s *RedisStore) String() string {
	return fmt.Sprintf("redis:%s", s.key)
}
