package model

import "time"

type SlotStatus string

const (
	SlotAvailable SlotStatus = "Available"
	SlotLocked    SlotStatus = "Locked"
	SlotBooked    SlotStatus = "Booked"
)

// Slot is a bookable interval inside a Schedule. Status is the single
// authority on availability; transitions out of Available happen only
// through a guarded update on the parent document.
type Slot struct {
	ID         string     `json:"id" bson:"id"`
	Start      string     `json:"start" bson:"start"`
	End        string     `json:"end" bson:"end"`
	Status     SlotStatus `json:"status" bson:"status"`
	CustomerID string     `json:"customerId,omitempty" bson:"customer_id,omitempty"`
	LockedAt   *time.Time `json:"-" bson:"locked_at,omitempty"`
}

// Taken reports whether the slot is out of circulation, whichever of the
// two reserved states it is in.
func (s *Slot) Taken() bool {
	return s.Status == SlotLocked || s.Status == SlotBooked
}

// Schedule groups the slots for one (company, department, date) scope.
type Schedule struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	Company    string    `json:"company" bson:"company"`
	Department string    `json:"department" bson:"department"`
	Date       string    `json:"date" bson:"date"`
	Slots      []Slot    `json:"slots" bson:"slots"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// Slot returns the slot with the given id, or nil.
func (s *Schedule) Slot(slotID string) *Slot {
	for i := range s.Slots {
		if s.Slots[i].ID == slotID {
			return &s.Slots[i]
		}
	}
	return nil
}

// SlotCreate is the payload for adding a slot to a scope, creating the
// scope's schedule document on first use.
type SlotCreate struct {
	Company    string `json:"company" validate:"required,min=1,max=100"`
	Department string `json:"department" validate:"required,min=1,max=100"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Start      string `json:"start" validate:"required,valid_clock"`
	End        string `json:"end" validate:"required,valid_clock"`
}

// BookRequest is the canonical booking payload. CustomerID may instead be
// supplied through the X-Customer-ID header; the body value wins.
type BookRequest struct {
	SlotID     string `json:"slotId" validate:"required"`
	CustomerID string `json:"customerId" validate:"required"`
}

// ConfirmRequest finalizes a held slot after the out-of-band payment step.
type ConfirmRequest struct {
	SlotID     string `json:"slotId" validate:"required"`
	CustomerID string `json:"customerId" validate:"required"`
}
