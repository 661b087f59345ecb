// Package revocation tracks session tokens that were logged out before they
// expired. Tokens are keyed by their jti claim.
package revocation

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

// Denylist records revoked token ids until they would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NopDenylist is used when no Redis is configured: nothing is ever revoked.
type NopDenylist struct{}

func (NopDenylist) Revoke(context.Context, string, time.Time) error { return nil }
func (NopDenylist) IsRevoked(context.Context, string) (bool, error) { return false, nil }

type store interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redislib.StatusCmd
	Exists(ctx context.Context, keys ...string) *redislib.IntCmd
}

// RedisDenylist stores revoked ids as keys with a TTL equal to the token's
// remaining lifetime, so entries expire on their own.
type RedisDenylist struct {
	client store
	prefix string
	now    func() time.Time
}

func NewRedisDenylist(client *redislib.Client) *RedisDenylist {
	return &RedisDenylist{client: client, prefix: "revoked:", now: time.Now}
}

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, d.key(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

func (d *RedisDenylist) key(jti string) string {
	return d.prefix + jti
}

// NewClient parses url, connects and pings Redis.
func NewClient(ctx context.Context, url string, timeout time.Duration) (*redislib.Client, error) {
	opts, err := redislib.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redislib.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
