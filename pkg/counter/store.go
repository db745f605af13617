package counter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store exposes the list, keyed-TTL and sequence primitives the admission
// bucket and the slot locks are built on. Implementations carry no business
// logic; callers decide what the keys mean.
type Store interface {
	// Length reports the number of elements in the list at key.
	// A missing key counts as an empty list.
	Length(ctx context.Context, key string) (int64, error)

	// PushRight appends a value to the list at key, creating it if absent.
	PushRight(ctx context.Context, key string, value string) error

	// PopLeft removes and returns the head of the list at key.
	// The second return is false when the list is empty.
	PopLeft(ctx context.Context, key string) (string, bool, error)

	// Set writes a value under key with a relative expiry.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// SetNX writes the value only if the key does not already exist.
	// Returns true when this call created the key.
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// Get returns the value under key; the second return is false when absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Increment atomically increments the integer at key and returns the
	// new value, starting from zero for an absent key.
	Increment(ctx context.Context, key string) (int64, error)
}

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Length(ctx context.Context, key string) (int64, error) {
	n, err := s.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("llen %q: %w", key, err)
	}
	return n, nil
}

func (s *redisStore) PushRight(ctx context.Context, key string, value string) error {
	if err := s.client.RPush(ctx, key, value).Err(); err != nil {
		return fmt.Errorf("rpush %q: %w", key, err)
	}
	return nil
}

func (s *redisStore) PopLeft(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.LPop(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lpop %q: %w", key, err)
	}
	return value, true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *redisStore) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	created, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %q: %w", key, err)
	}
	return created, nil
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del %q: %w", key, err)
	}
	return nil
}

func (s *redisStore) Increment(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %q: %w", key, err)
	}
	return n, nil
}
