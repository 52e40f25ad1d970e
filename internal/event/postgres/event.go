package postgres

import (
	eventDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/event"
	"github.com/frahmantamala/event-scheduler/internal/core/repository"
	"github.com/frahmantamala/event-scheduler/internal/event"
	"gorm.io/gorm"
)

// NewRepositories wires the generic stores the event services work against,
// each carrying its referential policy.
func NewRepositories(db *gorm.DB) event.Repositories {
	return event.Repositories{
		Events: repository.New[eventDatamodel.Event](db,
			repository.WithDeleteRules[eventDatamodel.Event](
				repository.DeleteRule{Model: &eventDatamodel.UserEvent{}, ForeignKey: "event_id", Action: repository.Cascade},
			)),
		Types: repository.New[eventDatamodel.EventType](db,
			repository.WithDeleteRules[eventDatamodel.EventType](
				repository.DeleteRule{Model: &eventDatamodel.Event{}, ForeignKey: "event_type_id", Action: repository.SetNull},
			)),
		Attendance: repository.New[eventDatamodel.UserEvent](db),
		Settings:   repository.New[eventDatamodel.EventSettings](db),
	}
}
