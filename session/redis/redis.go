package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/medisearch/config"
	"github.com/mohammad-safakhou/medisearch/models"
)

const keyPrefix = "chat:history:"

// Store keeps session history as JSON values in redis, one key per session,
// with the TTL refreshed on every append.
type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

// New connects to redis and verifies the connection with a ping.
func New(cfg config.RedisConfig, ttl time.Duration) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{client: client, ttl: ttl}, nil
}

func (s *Store) Ensure(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	return id, nil
}

func (s *Store) History(ctx context.Context, id string) (models.History, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get history: %w", err)
	}
	var history models.History
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return history, nil
}

func (s *Store) Append(ctx context.Context, id string, turns ...models.Turn) error {
	history, err := s.History(ctx, id)
	if err != nil {
		return err
	}
	history = append(history, turns...)
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set history: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
