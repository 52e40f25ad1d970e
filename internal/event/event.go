package event

import (
	"time"

	eventDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/event"
)

type Event struct {
	ID             int64      `json:"id"`
	EventTypeID    *int64     `json:"event_type_id,omitempty"`
	CreatorID      *int64     `json:"creator_id,omitempty"`
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	StartDateTime  *time.Time `json:"start_date_time,omitempty"`
	EndDateTime    *time.Time `json:"end_date_time,omitempty"`
	CanBePostponed bool       `json:"can_be_postponed"`
	IsCompleted    bool       `json:"is_completed"`
	IsRejected     bool       `json:"is_rejected"`
	RejectedAt     *time.Time `json:"rejected_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type EventType struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Settings struct {
	UserID             int64 `json:"user_id"`
	FollowUpPeriodDays int   `json:"follow_up_period_days"`
}

func FromDataModel(e *eventDatamodel.Event) *Event {
	return &Event{
		ID:             e.ID,
		EventTypeID:    e.EventTypeID,
		CreatorID:      e.CreatorID,
		Title:          e.Title,
		Description:    e.Description,
		StartDateTime:  e.StartDateTime,
		EndDateTime:    e.EndDateTime,
		CanBePostponed: e.CanBePostponed,
		IsCompleted:    e.IsCompleted,
		IsRejected:     e.IsRejected,
		RejectedAt:     e.RejectedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func FromEventTypeDataModel(t *eventDatamodel.EventType) *EventType {
	return &EventType{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

func shifted(t *time.Time, d time.Duration) *time.Time {
	if t == nil {
		return nil
	}
	v := t.Add(d)
	return &v
}
