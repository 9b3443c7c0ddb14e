// Package redis grants per transport unit leases in Redis so that only one
// service instance starts orders of a unit at a time.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tms/internal/core/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLeaseLost is returned on release when the lease expired or was taken
// over before the guarded work finished.
var ErrLeaseLost = errors.New("unit lease expired before release")

const keyPrefix = "tms:unit-lease:"

// Deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type UnitLocker struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.UnitLocker = (*UnitLocker)(nil)

func NewUnitLocker(client *redis.Client, ttl time.Duration) (*UnitLocker, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		return nil, errors.New("lease ttl must be positive")
	}
	return &UnitLocker{client: client, ttl: ttl}, nil
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (l *UnitLocker) Lock(ctx context.Context, unitBK string) (func(context.Context) error, error) {
	key := keyPrefix + unitBK
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease of unit %s: %w", unitBK, err)
	}
	if !ok {
		return nil, ports.ErrUnitLocked
	}

	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
		if err != nil {
			return fmt.Errorf("release lease of unit %s: %w", unitBK, err)
		}
		if n == 0 {
			return ErrLeaseLost
		}
		return nil
	}, nil
}
