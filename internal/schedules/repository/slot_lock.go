package repository

import (
	"context"
	"fmt"
	"time"

	scheduleerrors "bookline/internal/schedules/errors"
	"bookline/pkg/counter"
)

const lockKeyPrefix = "schedule_lock:"

// SlotLockRepository manages the advisory soft locks taken before the
// authoritative slot transition. The TTL bounds the window a crashed
// coordinator can leave a lock behind: the key self-expires and needs no
// cleanup of its own.
type SlotLockRepository interface {
	Acquire(ctx context.Context, slotID, customerID string) error
	Release(ctx context.Context, slotID string) error
	IsHeld(ctx context.Context, slotID string) (bool, error)
}

type counterSlotLockRepository struct {
	store counter.Store
	ttl   time.Duration
}

func NewSlotLockRepository(store counter.Store, ttl time.Duration) SlotLockRepository {
	return &counterSlotLockRepository{
		store: store,
		ttl:   ttl,
	}
}

func lockKey(slotID string) string {
	return lockKeyPrefix + slotID
}

func (r *counterSlotLockRepository) Acquire(ctx context.Context, slotID, customerID string) error {
	created, err := r.store.SetNX(ctx, lockKey(slotID), customerID, r.ttl)
	if err != nil {
		return fmt.Errorf("acquire slot lock: %w", err)
	}
	if !created {
		return scheduleerrors.ErrLockHeld
	}
	return nil
}

func (r *counterSlotLockRepository) Release(ctx context.Context, slotID string) error {
	if err := r.store.Delete(ctx, lockKey(slotID)); err != nil {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}

func (r *counterSlotLockRepository) IsHeld(ctx context.Context, slotID string) (bool, error) {
	_, held, err := r.store.Get(ctx, lockKey(slotID))
	if err != nil {
		return false, fmt.Errorf("check slot lock: %w", err)
	}
	return held, nil
}
