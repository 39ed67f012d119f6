package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklistService remembers access tokens revoked by logout until they
// would have expired anyway.
type TokenBlacklistService struct {
	redis redis.Cmdable
}

// NewTokenBlacklistService creates a new token blacklist service
func NewTokenBlacklistService(client redis.Cmdable) *TokenBlacklistService {
	return &TokenBlacklistService{redis: client}
}

func blacklistKey(tokenID string) string {
	return fmt.Sprintf("blacklist:access:%s", tokenID)
}

// AddToken blacklists tokenID for ttl. Non-positive ttls are a no-op.
func (s *TokenBlacklistService) AddToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, blacklistKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsTokenBlacklisted checks if a token is in the blacklist
func (s *TokenBlacklistService) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	exists, err := s.redis.Exists(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}
