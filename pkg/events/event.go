package events

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	SlotCreated  Type = "slot.created"
	SlotHeld     Type = "slot.held"
	SlotBooked   Type = "slot.booked"
	SlotReleased Type = "slot.released"
)

// Event is the booking lifecycle record published for downstream consumers
// (notification senders, analytics). Keyed by slot id so one slot's events
// stay ordered within a partition.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	SlotID     string    `json:"slot_id"`
	ScheduleID string    `json:"schedule_id,omitempty"`
	Company    string    `json:"company,omitempty"`
	Department string    `json:"department,omitempty"`
	Date       string    `json:"date,omitempty"`
	CustomerID string    `json:"customer_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(eventType Type, slotID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		SlotID:     slotID,
		OccurredAt: time.Now().UTC(),
	}
}
