package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ledger/config"
)

// TokenStore keeps the currently issued access token per user so that
// logout revokes it before the JWT itself expires.
type TokenStore interface {
	SaveToken(ctx context.Context, userID int64, token string, ttl time.Duration) error
	GetToken(ctx context.Context, userID int64) (string, error)
	DeleteToken(ctx context.Context, userID int64) error
}

type redisClient struct {
	rdb *redis.Client
}

func NewRedisClient(cfg *config.Config) (TokenStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &redisClient{rdb: rdb}, nil
}

func buildTokenKey(userID int64) string {
	return "auth:token:" + fmt.Sprint(userID)
}

func (s *redisClient) SaveToken(ctx context.Context, userID int64, token string, ttl time.Duration) error {
	return s.rdb.Set(ctx, buildTokenKey(userID), token, ttl).Err()
}

func (s *redisClient) GetToken(ctx context.Context, userID int64) (string, error) {
	val, err := s.rdb.Get(ctx, buildTokenKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *redisClient) DeleteToken(ctx context.Context, userID int64) error {
	return s.rdb.Del(ctx, buildTokenKey(userID)).Err()
}
