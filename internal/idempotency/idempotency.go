// Package idempotency claims client idempotency keys in Redis so a repeated
// place-order request replays the first result instead of ordering twice.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyOrderPlace is idem:order:place:{scope}:{client key} -> order id.
const KeyOrderPlace = "idem:order:place:%s:%s"

const pendingMarker = "pending"

type State int

const (
	// StateClaimed means the caller owns the key and must Complete or Abandon it.
	StateClaimed State = iota
	// StateInFlight means another request holds the key and has not finished.
	StateInFlight
	// StateCompleted means the key already maps to an order id.
	StateCompleted
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func redisKey(scope, key string) string {
	return fmt.Sprintf(KeyOrderPlace, scope, key)
}

// Begin claims key within scope. On StateCompleted the stored order id is
// returned.
func (s *Store) Begin(ctx context.Context, scope, key string) (State, string, error) {
	k := redisKey(scope, key)

	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.rdb.SetNX(ctx, k, pendingMarker, s.ttl).Result()
		if err != nil {
			return 0, "", fmt.Errorf("claim idempotency key: %w", err)
		}
		if ok {
			return StateClaimed, "", nil
		}

		val, err := s.rdb.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// Expired or abandoned between SETNX and GET.
			continue
		}
		if err != nil {
			return 0, "", fmt.Errorf("read idempotency key: %w", err)
		}
		if val == pendingMarker {
			return StateInFlight, "", nil
		}
		return StateCompleted, val, nil
	}

	return StateInFlight, "", nil
}

// Complete records orderID as the result for key.
func (s *Store) Complete(ctx context.Context, scope, key, orderID string) error {
	if err := s.rdb.Set(ctx, redisKey(scope, key), orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Abandon releases a claim after a failed placement so the client can retry.
func (s *Store) Abandon(ctx context.Context, scope, key string) error {
	if err := s.rdb.Del(ctx, redisKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("abandon idempotency key: %w", err)
	}
	return nil
}
