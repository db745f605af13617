package service

import (
	"context"
	"errors"
	"fmt"

	scheduleerrors "bookline/internal/schedules/errors"
	"bookline/internal/schedules/repository"
	"bookline/internal/schedules/validator"
	"bookline/pkg/config"
	"bookline/pkg/counter"
	apperrors "bookline/pkg/errors"
	"bookline/pkg/events"
	"bookline/pkg/model"
)

type ScheduleService interface {
	GetByScope(ctx context.Context, company, department, date string) (*model.Schedule, error)
	CreateSlot(ctx context.Context, req *model.SlotCreate) (*model.Schedule, bool, error)
	DeleteSlot(ctx context.Context, slotID string) error
	Book(ctx context.Context, req *model.BookRequest) (*BookingReceipt, error)
	Confirm(ctx context.Context, req *model.ConfirmRequest) error
}

type scheduleService struct {
	repo      repository.ScheduleRepository
	lockRepo  repository.SlotLockRepository
	seq       counter.Store
	validator *validator.ScheduleValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewScheduleService(
	repo repository.ScheduleRepository,
	lockRepo repository.SlotLockRepository,
	seq counter.Store,
	validator *validator.ScheduleValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ScheduleService {
	return &scheduleService{
		repo:      repo,
		lockRepo:  lockRepo,
		seq:       seq,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *scheduleService) GetByScope(ctx context.Context, company, department, date string) (*model.Schedule, error) {
	if company == "" || department == "" || date == "" {
		return nil, apperrors.InvalidInput("company, department and date are required")
	}

	schedule, err := s.repo.FindByScope(ctx, company, department, date)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return nil, apperrors.NotFound("Schedule")
		}
		s.cfg.Log.Error("Failed to get schedule by scope",
			"company", company,
			"department", department,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve schedule", err)
	}

	return schedule, nil
}

// CreateSlot appends a slot to the scope's schedule, creating the schedule
// document on first use. The second return reports whether a new document
// was created. Slot ids come from an atomic per-scope sequence in the
// shared counter store, and the append itself is a single pushed update,
// so neither concurrent creators nor an in-flight hold on a sibling slot
// can be clobbered.
func (s *scheduleService) CreateSlot(ctx context.Context, req *model.SlotCreate) (*model.Schedule, bool, error) {
	if err := s.validator.ValidateSlotCreate(req); err != nil {
		s.cfg.Log.Warn("Slot creation validation failed", "error", err)
		if errors.Is(err, scheduleerrors.ErrStartNotBeforeEnd) {
			return nil, false, apperrors.Validation("Start time must be before end time", nil)
		}
		return nil, false, apperrors.Validation("Slot validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	slotID, err := s.nextSlotID(ctx, req)
	if err != nil {
		return nil, false, apperrors.Internal("Failed to generate slot id", err)
	}

	slot := model.Slot{
		ID:     slotID,
		Start:  req.Start,
		End:    req.End,
		Status: model.SlotAvailable,
	}

	schedule, created, err := s.repo.AppendSlot(ctx, req.Company, req.Department, req.Date, slot)
	if err != nil {
		s.cfg.Log.Error("Failed to append slot", "slot_id", slotID, "error", err)
		return nil, false, apperrors.Internal("Failed to save slot", err)
	}

	s.publish(ctx, s.slotEvent(events.SlotCreated, schedule, slotID, ""))

	s.cfg.Log.Info("Slot created",
		"slot_id", slotID,
		"schedule_id", schedule.ID,
		"company", req.Company,
		"department", req.Department,
		"date", req.Date,
		"new_schedule", created,
	)
	return schedule, created, nil
}

func (s *scheduleService) DeleteSlot(ctx context.Context, slotID string) error {
	if slotID == "" {
		return apperrors.InvalidInput("Slot ID cannot be empty")
	}

	schedule, err := s.repo.FindBySlotID(ctx, slotID)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return apperrors.NotFound("Slot")
		}
		return apperrors.Internal("Failed to look up slot", err)
	}

	slot := schedule.Slot(slotID)
	if slot == nil {
		return apperrors.NotFound("Slot")
	}
	if slot.Taken() {
		return apperrors.Conflict("Cannot delete a booked slot")
	}

	if err := s.repo.RemoveSlot(ctx, slotID); err != nil {
		if errors.Is(err, scheduleerrors.ErrPreconditionFailed) {
			// The slot was taken between the read and the pull.
			return apperrors.Conflict("Cannot delete a booked slot")
		}
		s.cfg.Log.Error("Failed to remove slot", "slot_id", slotID, "error", err)
		return apperrors.Internal("Failed to delete slot", err)
	}

	removed, err := s.repo.DeleteIfEmpty(ctx, schedule.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to clean up empty schedule", "schedule_id", schedule.ID, "error", err)
		return apperrors.Internal("Failed to delete slot", err)
	}

	s.cfg.Log.Info("Slot deleted",
		"slot_id", slotID,
		"schedule_id", schedule.ID,
		"schedule_removed", removed,
	)
	return nil
}

func (s *scheduleService) nextSlotID(ctx context.Context, req *model.SlotCreate) (string, error) {
	key := fmt.Sprintf("slot_seq:%s:%s:%s", req.Company, req.Department, req.Date)
	n, err := s.seq.Increment(ctx, key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("c-%03d", n), nil
}

func (s *scheduleService) slotEvent(eventType events.Type, schedule *model.Schedule, slotID, customerID string) events.Event {
	event := events.New(eventType, slotID)
	event.ScheduleID = schedule.ID
	event.Company = schedule.Company
	event.Department = schedule.Department
	event.Date = schedule.Date
	event.CustomerID = customerID
	return event
}

// publish is best effort: booking state is already durable when events go
// out, so a broker outage must not fail the request.
func (s *scheduleService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", event.Type,
			"slot_id", event.SlotID,
			"error", err,
		)
	}
}
