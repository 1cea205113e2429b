package auth

import (
	"context"

	"github.com/go-redis/redis/v8"
)

const revokedTokensSetKey = "fittrack-revoked-tokens"

var _ Revoker = (*RedisRevoker)(nil)

// RedisRevoker keeps revoked token ids in a redis set.
type RedisRevoker struct {
	redisClient redis.UniversalClient
}

func NewRedisRevoker(redisClient redis.UniversalClient) *RedisRevoker {
	return &RedisRevoker{
		redisClient: redisClient,
	}
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	cmd := r.redisClient.SIsMember(ctx, revokedTokensSetKey, tokenID)
	if err := cmd.Err(); err != nil {
		return false, err
	}
	return cmd.Val(), nil
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string) error {
	return r.redisClient.SAdd(ctx, revokedTokensSetKey, tokenID).Err()
}
