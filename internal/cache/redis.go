package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

const decimalsKeyPrefix = "decimals:"

// RedisStore shares resolved decimals between processes.
//
// Key schema:
//
//	decimals:{lowercase token address} - base 10 decimals
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to url (redis://...) and pings the server.
// A zero ttl keeps entries forever.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return NewRedisStoreFromClient(rdb, ttl), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func decimalsKey(address common.Address) string {
	return decimalsKeyPrefix + common.Bytes2Hex(address.Bytes())
}

// GetDecimals reports false without error when the token is not stored.
func (s *RedisStore) GetDecimals(ctx context.Context, address common.Address) (uint8, bool, error) {
	val, err := s.rdb.Get(ctx, decimalsKey(address)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis: get decimals %s: %w", address.Hex(), err)
	}
	decimals, err := strconv.ParseUint(val, 10, 8)
	if err != nil {
		return 0, false, fmt.Errorf("redis: decimals %s: %w", address.Hex(), err)
	}
	return uint8(decimals), true, nil
}

func (s *RedisStore) SetDecimals(ctx context.Context, address common.Address, decimals uint8) error {
	if err := s.rdb.Set(ctx, decimalsKey(address), strconv.Itoa(int(decimals)), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set decimals %s: %w", address.Hex(), err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
