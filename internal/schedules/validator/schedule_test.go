package validator

import (
	"errors"
	"testing"

	scheduleerrors "bookline/internal/schedules/errors"
	"bookline/pkg/logger"
	"bookline/pkg/model"
)

func newTestValidator() *ScheduleValidator {
	log := logger.New(logger.Config{Level: "error", Service: "test"})
	return NewScheduleValidator(log)
}

func validCreate() *model.SlotCreate {
	return &model.SlotCreate{
		Company:    "acme",
		Department: "sales",
		Date:       "2025-10-23",
		Start:      "09:00",
		End:        "10:00",
	}
}

func TestValidateSlotCreate_Valid(t *testing.T) {
	v := newTestValidator()
	if err := v.ValidateSlotCreate(validCreate()); err != nil {
		t.Errorf("expected valid request to pass, got: %v", err)
	}
}

func TestValidateSlotCreate_StartNotBeforeEnd(t *testing.T) {
	v := newTestValidator()

	cases := []struct {
		name       string
		start, end string
	}{
		{"start after end", "11:00", "10:00"},
		{"start equals end", "10:00", "10:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreate()
			req.Start = tc.start
			req.End = tc.end

			err := v.ValidateSlotCreate(req)
			if !errors.Is(err, scheduleerrors.ErrStartNotBeforeEnd) {
				t.Errorf("expected ErrStartNotBeforeEnd, got: %v", err)
			}
		})
	}
}

func TestValidateSlotCreate_RejectsBadFields(t *testing.T) {
	v := newTestValidator()

	cases := []struct {
		name   string
		mutate func(*model.SlotCreate)
	}{
		{"missing company", func(r *model.SlotCreate) { r.Company = "" }},
		{"missing department", func(r *model.SlotCreate) { r.Department = "" }},
		{"bad date format", func(r *model.SlotCreate) { r.Date = "23/10/2025" }},
		{"bad start clock", func(r *model.SlotCreate) { r.Start = "9am" }},
		{"out of range clock", func(r *model.SlotCreate) { r.End = "24:00" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreate()
			tc.mutate(req)
			if err := v.ValidateSlotCreate(req); err == nil {
				t.Error("expected validation to fail")
			}
		})
	}
}

func TestValidateBookRequest(t *testing.T) {
	v := newTestValidator()

	if err := v.ValidateBookRequest(&model.BookRequest{SlotID: "c-001", CustomerID: "u-1"}); err != nil {
		t.Errorf("expected valid request to pass, got: %v", err)
	}
	if err := v.ValidateBookRequest(&model.BookRequest{SlotID: "c-001"}); err == nil {
		t.Error("expected missing customer to fail")
	}
	if err := v.ValidateBookRequest(&model.BookRequest{CustomerID: "u-1"}); err == nil {
		t.Error("expected missing slot id to fail")
	}
}
