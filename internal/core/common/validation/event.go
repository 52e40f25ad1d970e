package validation

import (
	"fmt"
	"strings"
	"time"

	errors "github.com/frahmantamala/event-scheduler/internal"
)

// Schedule is the optional start/end pair of an event.
type Schedule struct {
	Start *time.Time
	End   *time.Time
}

// ValidateEvent checks title, description and schedule together and lists
// every broken rule.
func ValidateEvent(title string, description *string, schedule Schedule) *errors.AppError {
	validator := NewValidator()
	validator.Field("title", strings.TrimSpace(title)).
		Required(errors.ErrCodeInvalidTitle).
		MaxLength(MaxTitleLength, errors.ErrCodeInvalidTitle)
	validator.Field("description", description).
		MaxLength(MaxDescriptionLength, errors.ErrCodeInvalidDescription)
	validator.Field("end_date_time", schedule).
		Custom(endAfterStart).
		Custom(spanWithinLimit)
	return validator.Validate()
}

func endAfterStart(value interface{}) *errors.AppError {
	s, ok := value.(Schedule)
	if !ok || s.Start == nil || s.End == nil {
		return nil
	}
	if !s.End.After(*s.Start) {
		return errors.NewValidationFieldError("end_date_time", "end_date_time must be after start_date_time", errors.ErrCodeInvalidSchedule)
	}
	return nil
}

func spanWithinLimit(value interface{}) *errors.AppError {
	s, ok := value.(Schedule)
	if !ok || s.Start == nil || s.End == nil {
		return nil
	}
	if s.End.Sub(*s.Start) > MaxEventSpan {
		return errors.NewValidationFieldError("end_date_time",
			fmt.Sprintf("event must not last longer than %s", MaxEventSpan), errors.ErrCodeScheduleTooLong)
	}
	return nil
}
