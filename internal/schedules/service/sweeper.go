package service

import (
	"context"
	"sync"
	"time"

	"bookline/internal/schedules/repository"
	"bookline/pkg/config"
	"bookline/pkg/events"
	"bookline/pkg/model"
)

// LockSweeper reverts slots stranded in Locked. A coordinator that crashed
// between holding a slot and the customer confirming leaves the slot Locked
// with only the soft lock's TTL as a timeout; once that lock has expired
// with no confirmation, the sweep puts the slot back in circulation.
type LockSweeper struct {
	repo      repository.ScheduleRepository
	lockRepo  repository.SlotLockRepository
	publisher events.Publisher
	cfg       *config.Config
	stopCh    chan struct{}
	stopOnce  sync.Once
}

func NewLockSweeper(
	repo repository.ScheduleRepository,
	lockRepo repository.SlotLockRepository,
	publisher events.Publisher,
	cfg *config.Config,
) *LockSweeper {
	return &LockSweeper{
		repo:      repo,
		lockRepo:  lockRepo,
		publisher: publisher,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
	}
}

func (s *LockSweeper) Start() {
	go func() {
		ticker := time.NewTicker(s.cfg.LockSweepEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
				s.sweep(ctx)
				cancel()
			case <-s.stopCh:
				return
			}
		}
	}()

	s.cfg.Log.Info("Lock sweeper started", "interval", s.cfg.LockSweepEvery)
}

func (s *LockSweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *LockSweeper) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.cfg.SoftLockTTL)

	schedules, err := s.repo.FindStaleLocks(ctx, cutoff)
	if err != nil {
		s.cfg.Log.Warn("Lock sweep failed", "error", err)
		return
	}

	for _, schedule := range schedules {
		for i := range schedule.Slots {
			slot := &schedule.Slots[i]
			if slot.Status != model.SlotLocked || slot.LockedAt == nil || !slot.LockedAt.Before(cutoff) {
				continue
			}

			held, err := s.lockRepo.IsHeld(ctx, slot.ID)
			if err != nil {
				s.cfg.Log.Warn("Lock sweep could not check soft lock", "slot_id", slot.ID, "error", err)
				continue
			}
			if held {
				// Soft lock still alive, the hold is within its window.
				continue
			}

			if err := s.repo.ReleaseSlot(ctx, slot.ID); err != nil {
				// A concurrent confirm may have won; skip quietly.
				s.cfg.Log.Debug("Lock sweep release skipped", "slot_id", slot.ID, "error", err)
				continue
			}

			event := events.New(events.SlotReleased, slot.ID)
			event.ScheduleID = schedule.ID
			event.Company = schedule.Company
			event.Department = schedule.Department
			event.Date = schedule.Date
			if err := s.publisher.Publish(ctx, event); err != nil {
				s.cfg.Log.Warn("Failed to publish release event", "slot_id", slot.ID, "error", err)
			}

			s.cfg.Log.Info("Stale lock swept, slot released",
				"slot_id", slot.ID,
				"schedule_id", schedule.ID,
				"locked_at", slot.LockedAt,
			)
		}
	}
}
