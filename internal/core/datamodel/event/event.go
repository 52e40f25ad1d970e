package event

import (
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/event-scheduler/internal/core/common/validation"
	"github.com/frahmantamala/event-scheduler/internal/core/datamodel"
	userDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/user"
)

type EventType struct {
	datamodel.Base
	Name        string `gorm:"column:name;size:100;uniqueIndex;not null"`
	Description string `gorm:"column:description;size:500"`
}

func (EventType) TableName() string {
	return "event_types"
}

func (t EventType) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("event type name is required")
	}
	return nil
}

type Event struct {
	datamodel.Base
	EventTypeID    *int64              `gorm:"column:event_type_id;index"`
	CreatorID      *int64              `gorm:"column:creator_id;index"`
	Title          string              `gorm:"column:title;size:200;not null"`
	Description    *string             `gorm:"column:description;size:1000"`
	StartDateTime  *time.Time          `gorm:"column:start_date_time"`
	EndDateTime    *time.Time          `gorm:"column:end_date_time"`
	CanBePostponed bool                `gorm:"column:can_be_postponed;not null;default:false"`
	IsCompleted    bool                `gorm:"column:is_completed;not null;default:false"`
	IsRejected     bool                `gorm:"column:is_rejected;not null;default:false"`
	RejectedAt     *time.Time          `gorm:"column:rejected_at"`
	EventType      *EventType          `gorm:"foreignKey:EventTypeID;constraint:OnDelete:SET NULL"`
	Creator        *userDatamodel.User `gorm:"foreignKey:CreatorID;constraint:OnDelete:SET NULL"`
}

func (Event) TableName() string {
	return "events"
}

func (e Event) Validate() error {
	if appErr := validation.ValidateEvent(e.Title, e.Description, validation.Schedule{
		Start: e.StartDateTime,
		End:   e.EndDateTime,
	}); appErr != nil {
		return appErr
	}
	return nil
}

// UserEvent links a user to an event; (user_id, event_id) is unique.
type UserEvent struct {
	datamodel.Base
	UserID  int64               `gorm:"column:user_id;not null;uniqueIndex:ux_user_events_user_event"`
	EventID int64               `gorm:"column:event_id;not null;uniqueIndex:ux_user_events_user_event;index"`
	User    *userDatamodel.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Event   *Event              `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

func (UserEvent) TableName() string {
	return "user_events"
}

// EventSettings is a per-user singleton.
type EventSettings struct {
	datamodel.Base
	UserID             int64               `gorm:"column:user_id;not null;uniqueIndex"`
	FollowUpPeriodDays int                 `gorm:"column:follow_up_period_days;not null"`
	User               *userDatamodel.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (EventSettings) TableName() string {
	return "event_settings"
}
