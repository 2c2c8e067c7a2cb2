package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/homelyeats/pkg/config"
	"github.com/example/homelyeats/pkg/errs"
	"github.com/example/homelyeats/pkg/models"
	"github.com/go-redis/redis/v8"
)

const (
	anonymousCartTTL = 7 * 24 * time.Hour
	sessionTTL       = 24 * time.Hour
)

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisRepository) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// Anonymous carts live here, keyed by the visitor's session id, the
// server-side counterpart of the browser's local storage scope.

func (r *RedisRepository) GetAnonymousCart(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	key := fmt.Sprintf("cart:anon:%s", sessionID)
	var lines []models.CartLine
	err := r.GetJSON(ctx, key, &lines)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *RedisRepository) SaveAnonymousCart(ctx context.Context, sessionID string, lines []models.CartLine) error {
	key := fmt.Sprintf("cart:anon:%s", sessionID)
	if len(lines) == 0 {
		return r.client.Del(ctx, key).Err()
	}
	return r.SetJSON(ctx, key, lines, anonymousCartTTL)
}

func (r *RedisRepository) DeleteAnonymousCart(ctx context.Context, sessionID string) error {
	key := fmt.Sprintf("cart:anon:%s", sessionID)
	return r.client.Del(ctx, key).Err()
}

// Sessions map bearer tokens to user ids. The identity provider writes them;
// this service only trusts what it reads back.

func (r *RedisRepository) GetSession(ctx context.Context, token string) (string, error) {
	key := fmt.Sprintf("session:%s", token)
	userID, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errs.Unauthorizedf("unknown session")
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (r *RedisRepository) SaveSession(ctx context.Context, token, userID string) error {
	key := fmt.Sprintf("session:%s", token)
	return r.client.Set(ctx, key, userID, sessionTTL).Err()
}
