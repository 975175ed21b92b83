package token

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(client *redis.Client) *redisRepository {
	return &redisRepository{client}
}

type redisRepository struct {
	client *redis.Client
}

func (r redisRepository) SetRefreshToken(ctx context.Context, userId uint, tokenId string, expiresIn time.Duration) error {
	key := refreshTokenKey(userId, tokenId)
	if err := r.client.Set(ctx, key, 0, expiresIn).Err(); err != nil {
		return fmt.Errorf("failed to set refresh token: %v", err)
	}
	return nil
}

func (r redisRepository) DeleteRefreshToken(ctx context.Context, userId uint, tokenId string) error {
	key := refreshTokenKey(userId, tokenId)
	deleted, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %v", err)
	}
	if deleted < 1 {
		return fmt.Errorf("refresh token not found: %s", key)
	}
	return nil
}

func (r redisRepository) DeleteRefreshTokens(ctx context.Context, userId uint) error {
	keys, err := r.client.Keys(ctx, fmt.Sprintf("refresh-token:%d:*", userId)).Result()
	if err != nil {
		return fmt.Errorf("failed to list refresh tokens: %v", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func refreshTokenKey(userId uint, tokenId string) string {
	return fmt.Sprintf("refresh-token:%d:%s", userId, tokenId)
}
