package service

import (
	"context"
	"errors"

	scheduleerrors "bookline/internal/schedules/errors"
	apperrors "bookline/pkg/errors"
	"bookline/pkg/events"
	"bookline/pkg/model"
)

// BookingReceipt is returned when a slot is successfully held. ExpiresIn
// is the soft-lock TTL in seconds: the window the customer has to confirm
// before the hold is swept back to Available.
type BookingReceipt struct {
	SlotID     string `json:"slotId"`
	CustomerID string `json:"customerId"`
	ExpiresIn  int    `json:"expiresIn"`
}

// Book reserves a slot for a customer. The protocol is soft lock first,
// hard transition second: the advisory lock in the counter store bounds
// the reservation window with its TTL, while the guarded status update on
// the schedule document is the actual mutual exclusion. Of N concurrent
// callers for the same slot at most one completes the transition; the
// rest fail with a conflict. The process holds no in-memory lock anywhere
// on this path, so correctness is unchanged under horizontal scaling.
func (s *scheduleService) Book(ctx context.Context, req *model.BookRequest) (*BookingReceipt, error) {
	if err := s.validator.ValidateBookRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	schedule, err := s.repo.FindBySlotID(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return nil, apperrors.NotFound("Slot")
		}
		return nil, apperrors.Internal("Failed to look up slot", err)
	}

	slot := schedule.Slot(req.SlotID)
	if slot == nil {
		return nil, apperrors.NotFound("Slot")
	}
	if slot.Status != model.SlotAvailable {
		return nil, apperrors.Conflict("Already booked")
	}

	if err := s.lockRepo.Acquire(ctx, req.SlotID, req.CustomerID); err != nil {
		if errors.Is(err, scheduleerrors.ErrLockHeld) {
			return nil, apperrors.Conflict("This slot is not available")
		}
		return nil, apperrors.Internal("Failed to acquire slot lock", err)
	}

	if err := s.repo.HoldSlot(ctx, req.SlotID, req.CustomerID); err != nil {
		// Compensate: the advisory lock must not outlive a failed hold.
		if releaseErr := s.lockRepo.Release(ctx, req.SlotID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock after failed hold",
				"slot_id", req.SlotID,
				"error", releaseErr,
			)
		}

		if errors.Is(err, scheduleerrors.ErrPreconditionFailed) {
			return nil, apperrors.Conflict("This slot is not available")
		}
		s.cfg.Log.Error("Failed to hold slot", "slot_id", req.SlotID, "error", err)
		return nil, apperrors.Internal("Failed to book slot", err)
	}

	s.publish(ctx, s.slotEvent(events.SlotHeld, schedule, req.SlotID, req.CustomerID))

	s.cfg.Log.Info("Slot held",
		"slot_id", req.SlotID,
		"schedule_id", schedule.ID,
		"customer_id", req.CustomerID,
	)
	return &BookingReceipt{
		SlotID:     req.SlotID,
		CustomerID: req.CustomerID,
		ExpiresIn:  int(s.cfg.SoftLockTTL.Seconds()),
	}, nil
}

// Confirm finalizes a held slot, Locked -> Booked, guarded on the same
// customer that holds it. The advisory lock is released afterwards; a
// failure there is logged only, the TTL cleans it up regardless.
func (s *scheduleService) Confirm(ctx context.Context, req *model.ConfirmRequest) error {
	if err := s.validator.ValidateConfirmRequest(req); err != nil {
		s.cfg.Log.Warn("Confirmation validation failed", "error", err)
		return apperrors.Validation("Confirmation validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.ConfirmSlot(ctx, req.SlotID, req.CustomerID); err != nil {
		if errors.Is(err, scheduleerrors.ErrPreconditionFailed) {
			return apperrors.Conflict("Slot is not held by this customer")
		}
		s.cfg.Log.Error("Failed to confirm slot", "slot_id", req.SlotID, "error", err)
		return apperrors.Internal("Failed to confirm booking", err)
	}

	if err := s.lockRepo.Release(ctx, req.SlotID); err != nil {
		s.cfg.Log.Warn("Failed to release slot lock after confirmation",
			"slot_id", req.SlotID,
			"error", err,
		)
	}

	if schedule, err := s.repo.FindBySlotID(ctx, req.SlotID); err == nil {
		s.publish(ctx, s.slotEvent(events.SlotBooked, schedule, req.SlotID, req.CustomerID))
	}

	s.cfg.Log.Info("Booking confirmed", "slot_id", req.SlotID, "customer_id", req.CustomerID)
	return nil
}
