package event

import "time"

type CreateEventDTO struct {
	EventTypeID    *int64     `json:"event_type_id" validate:"omitempty,gt=0"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	StartDateTime  *time.Time `json:"start_date_time"`
	EndDateTime    *time.Time `json:"end_date_time"`
	CanBePostponed bool       `json:"can_be_postponed"`
}

// UpdateEventDTO replaces every mutable field of an event.
type UpdateEventDTO = CreateEventDTO

type CreateEventTypeDTO struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type SettingsDTO struct {
	FollowUpPeriodDays int `json:"follow_up_period_days" validate:"min=1,max=365"`
}

type BulkRequestDTO struct {
	IDs []int64 `json:"ids" validate:"required,min=1,max=500,dive,gt=0"`
}

type ListQuery struct {
	PageNumber  int
	PageSize    int
	ActiveOnly  bool
	EventTypeID *int64
}

type EventsResponse struct {
	Items      []*Event `json:"items"`
	TotalCount int64    `json:"total_count"`
	PageNumber int      `json:"page_number"`
	PageSize   int      `json:"page_size"`
}

type EventTypesResponse struct {
	EventTypes []*EventType `json:"event_types"`
}
