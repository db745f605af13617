package validator

import (
	"regexp"

	scheduleerrors "bookline/internal/schedules/errors"
	"bookline/pkg/logger"
	"bookline/pkg/model"

	"github.com/go-playground/validator/v10"
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type ScheduleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewScheduleValidator(log *logger.Logger) *ScheduleValidator {
	v := validator.New()

	if err := v.RegisterValidation("valid_clock", validateClock); err != nil {
		log.Fatal("Failed to register 'valid_clock' validator", "error", err)
	}

	return &ScheduleValidator{
		validate: v,
		logger:   log,
	}
}

func validateClock(fl validator.FieldLevel) bool {
	return clockRegex.MatchString(fl.Field().String())
}

// ValidateSlotCreate checks field shapes and the start/end ordering.
// Times are HH:MM strings, so lexical comparison is also chronological.
func (v *ScheduleValidator) ValidateSlotCreate(req *model.SlotCreate) error {
	if err := v.validate.Struct(req); err != nil {
		return err
	}
	if req.Start >= req.End {
		return scheduleerrors.ErrStartNotBeforeEnd
	}
	return nil
}

func (v *ScheduleValidator) ValidateBookRequest(req *model.BookRequest) error {
	return v.validate.Struct(req)
}

func (v *ScheduleValidator) ValidateConfirmRequest(req *model.ConfirmRequest) error {
	return v.validate.Struct(req)
}
