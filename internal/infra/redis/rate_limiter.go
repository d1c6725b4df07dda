package redis

import (
	"context"
	"fmt"
	"time"
)

type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		err = r.client.Expire(ctx, key, window)
		if err != nil {
			return false, err
		}
	}

	if count > int64(limit) {
		return false, nil
	}

	return true, nil
}

// RedeemKey scopes redeem attempts per authenticated identity.
func RedeemKey(identityID string) string {
	return fmt.Sprintf("rate_limit:redeem:%s", identityID)
}

// CallbackKey scopes OAuth callback exchanges per client address.
func CallbackKey(remoteAddr string) string {
	return fmt.Sprintf("rate_limit:callback:%s", remoteAddr)
}
