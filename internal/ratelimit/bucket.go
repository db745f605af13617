package ratelimit

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"bookline/pkg/counter"
	"bookline/pkg/logger"
)

// Bucket is the admission pool for one process instance. The tokens live in
// the shared counter store, keyed by host and pid, so a restarted process
// picks up where its predecessor left off and horizontally scaled instances
// never share a pool. All callers of one instance compete for the same
// tokens: the bucket protects the downstream stores, it is not a fairness
// mechanism between clients.
type Bucket struct {
	store    counter.Store
	key      string
	capacity int
	log      *logger.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// InstanceKey derives the bucket key for the running process.
func InstanceKey(prefix string) string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s:%s-%d", prefix, hostname, os.Getpid())
}

func NewBucket(store counter.Store, prefix string, capacity int, log *logger.Logger) *Bucket {
	return &Bucket{
		store:    store,
		key:      InstanceKey(prefix),
		capacity: capacity,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

func (b *Bucket) Key() string {
	return b.key
}

// Fill tops the pool up to capacity. Safe to call on a full bucket.
func (b *Bucket) Fill(ctx context.Context) error {
	length, err := b.store.Length(ctx, b.key)
	if err != nil {
		return fmt.Errorf("fill bucket: %w", err)
	}

	deficit := int64(b.capacity) - length
	for i := int64(0); i < deficit; i++ {
		if err := b.store.PushRight(ctx, b.key, token()); err != nil {
			return fmt.Errorf("fill bucket: %w", err)
		}
	}

	b.log.Info("Admission bucket filled",
		"key", b.key,
		"capacity", b.capacity,
		"added", max(deficit, 0),
	)
	return nil
}

// Start launches the trickle refill: one token per second while below
// capacity, independent of consumption. Call Stop on shutdown.
func (b *Bucket) Start() {
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				b.refill(ctx)
				cancel()
			case <-b.stopCh:
				return
			}
		}
	}()

	b.log.Info("Admission bucket refill started", "key", b.key)
}

func (b *Bucket) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
}

func (b *Bucket) refill(ctx context.Context) {
	length, err := b.store.Length(ctx, b.key)
	if err != nil {
		b.log.Warn("Admission bucket refill failed", "key", b.key, "error", err)
		return
	}
	if length >= int64(b.capacity) {
		return
	}

	if err := b.store.PushRight(ctx, b.key, token()); err != nil {
		b.log.Warn("Admission bucket refill failed", "key", b.key, "error", err)
	}
}

// Consume takes one token from the pool. It reports false when the pool is
// drained; an error means the store could not be reached and the caller
// decides admission policy.
func (b *Bucket) Consume(ctx context.Context) (bool, error) {
	_, ok, err := b.store.PopLeft(ctx, b.key)
	if err != nil {
		return false, fmt.Errorf("consume token: %w", err)
	}
	return ok, nil
}

func token() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
