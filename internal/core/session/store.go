// Package session tracks revoked access tokens in redis so logout takes
// effect before the token's natural expiry.
package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	RDB *redis.Client
}

func New(addr, pass string, db int) *Store {
	return &Store{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

func key(jti string) string { return "session:revoked:" + jti }

// Revoke denylists the token id until it would have expired anyway.
func (s *Store) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to deny
	}
	return s.RDB.Set(ctx, key(jti), 1, ttl).Err()
}

// IsRevoked reports whether the token id has been denylisted. Redis being
// unreachable fails closed: the caller treats the token as revoked.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.RDB.Exists(ctx, key(jti)).Result()
	if err != nil {
		return true, err
	}
	return n > 0, nil
}

func (s *Store) Close() error { return s.RDB.Close() }
