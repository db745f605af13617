package service

import (
	"context"
	"sync"
	"time"

	"bookline/internal/schedules/validator"
	"bookline/pkg/config"
	"bookline/pkg/events"
	"bookline/pkg/logger"
	"bookline/pkg/model"
)

type mockScheduleRepository struct {
	findByScopeFunc    func(ctx context.Context, company, department, date string) (*model.Schedule, error)
	findBySlotIDFunc   func(ctx context.Context, slotID string) (*model.Schedule, error)
	appendSlotFunc     func(ctx context.Context, company, department, date string, slot model.Slot) (*model.Schedule, bool, error)
	removeSlotFunc     func(ctx context.Context, slotID string) error
	deleteIfEmptyFunc  func(ctx context.Context, id string) (bool, error)
	holdSlotFunc       func(ctx context.Context, slotID, customerID string) error
	confirmSlotFunc    func(ctx context.Context, slotID, customerID string) error
	releaseSlotFunc    func(ctx context.Context, slotID string) error
	findStaleLocksFunc func(ctx context.Context, cutoff time.Time) ([]*model.Schedule, error)
}

func (m *mockScheduleRepository) FindByScope(ctx context.Context, company, department, date string) (*model.Schedule, error) {
	if m.findByScopeFunc != nil {
		return m.findByScopeFunc(ctx, company, department, date)
	}
	return nil, nil
}

func (m *mockScheduleRepository) FindBySlotID(ctx context.Context, slotID string) (*model.Schedule, error) {
	if m.findBySlotIDFunc != nil {
		return m.findBySlotIDFunc(ctx, slotID)
	}
	return nil, nil
}

func (m *mockScheduleRepository) AppendSlot(ctx context.Context, company, department, date string, slot model.Slot) (*model.Schedule, bool, error) {
	if m.appendSlotFunc != nil {
		return m.appendSlotFunc(ctx, company, department, date, slot)
	}
	return &model.Schedule{
		ID:         "sched-1",
		Company:    company,
		Department: department,
		Date:       date,
		Slots:      []model.Slot{slot},
	}, true, nil
}

func (m *mockScheduleRepository) RemoveSlot(ctx context.Context, slotID string) error {
	if m.removeSlotFunc != nil {
		return m.removeSlotFunc(ctx, slotID)
	}
	return nil
}

func (m *mockScheduleRepository) DeleteIfEmpty(ctx context.Context, id string) (bool, error) {
	if m.deleteIfEmptyFunc != nil {
		return m.deleteIfEmptyFunc(ctx, id)
	}
	return false, nil
}

func (m *mockScheduleRepository) HoldSlot(ctx context.Context, slotID, customerID string) error {
	if m.holdSlotFunc != nil {
		return m.holdSlotFunc(ctx, slotID, customerID)
	}
	return nil
}

func (m *mockScheduleRepository) ConfirmSlot(ctx context.Context, slotID, customerID string) error {
	if m.confirmSlotFunc != nil {
		return m.confirmSlotFunc(ctx, slotID, customerID)
	}
	return nil
}

func (m *mockScheduleRepository) ReleaseSlot(ctx context.Context, slotID string) error {
	if m.releaseSlotFunc != nil {
		return m.releaseSlotFunc(ctx, slotID)
	}
	return nil
}

func (m *mockScheduleRepository) FindStaleLocks(ctx context.Context, cutoff time.Time) ([]*model.Schedule, error) {
	if m.findStaleLocksFunc != nil {
		return m.findStaleLocksFunc(ctx, cutoff)
	}
	return nil, nil
}

type mockSlotLockRepository struct {
	acquireFunc func(ctx context.Context, slotID, customerID string) error
	releaseFunc func(ctx context.Context, slotID string) error
	isHeldFunc  func(ctx context.Context, slotID string) (bool, error)
}

func (m *mockSlotLockRepository) Acquire(ctx context.Context, slotID, customerID string) error {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, slotID, customerID)
	}
	return nil
}

func (m *mockSlotLockRepository) Release(ctx context.Context, slotID string) error {
	if m.releaseFunc != nil {
		return m.releaseFunc(ctx, slotID)
	}
	return nil
}

func (m *mockSlotLockRepository) IsHeld(ctx context.Context, slotID string) (bool, error) {
	if m.isHeldFunc != nil {
		return m.isHeldFunc(ctx, slotID)
	}
	return false, nil
}

// mockCounterStore only counts; the list and TTL primitives are unused by
// the service path under test.
type mockCounterStore struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func newMockCounterStore() *mockCounterStore {
	return &mockCounterStore{seqs: make(map[string]int64)}
}

func (m *mockCounterStore) Increment(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqs[key]++
	return m.seqs[key], nil
}

func (m *mockCounterStore) Length(context.Context, string) (int64, error)     { return 0, nil }
func (m *mockCounterStore) PushRight(context.Context, string, string) error   { return nil }
func (m *mockCounterStore) PopLeft(context.Context, string) (string, bool, error) {
	return "", false, nil
}
func (m *mockCounterStore) Set(context.Context, string, string, time.Duration) error { return nil }
func (m *mockCounterStore) SetNX(context.Context, string, string, time.Duration) (bool, error) {
	return true, nil
}
func (m *mockCounterStore) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (m *mockCounterStore) Delete(context.Context, string) error              { return nil }

func testConfig() *config.Config {
	return &config.Config{
		SoftLockTTL:    300 * time.Second,
		LockSweepEvery: time.Minute,
		RequestTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		Log:            logger.New(logger.Config{Level: "error", Service: "test"}),
	}
}

func newTestService(repo *mockScheduleRepository, lockRepo *mockSlotLockRepository) *scheduleService {
	cfg := testConfig()
	return &scheduleService{
		repo:      repo,
		lockRepo:  lockRepo,
		seq:       newMockCounterStore(),
		validator: validator.NewScheduleValidator(cfg.Log),
		publisher: events.NewKafkaPublisher(nil, "booking-events", cfg.Log),
		cfg:       cfg,
	}
}
