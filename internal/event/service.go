package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	errors "github.com/frahmantamala/event-scheduler/internal"
	"github.com/frahmantamala/event-scheduler/internal/core/common/validation"
	eventDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/event"
	"github.com/frahmantamala/event-scheduler/internal/core/repository"
)

// Repositories groups the stores the event services work against.
type Repositories struct {
	Events     repository.Store[eventDatamodel.Event]
	Types      repository.Store[eventDatamodel.EventType]
	Attendance repository.Store[eventDatamodel.UserEvent]
	Settings   repository.Store[eventDatamodel.EventSettings]
}

type Service struct {
	repos               Repositories
	defaultFollowUpDays int
	logger              *slog.Logger
}

func NewService(repos Repositories, defaultFollowUpDays int, logger *slog.Logger) *Service {
	return &Service{
		repos:               repos,
		defaultFollowUpDays: defaultFollowUpDays,
		logger:              logger,
	}
}

func validateEventDTO(dto CreateEventDTO) *errors.AppError {
	return validation.Merge(
		validation.Struct(dto),
		validation.ValidateEvent(dto.Title, dto.Description, validation.Schedule{
			Start: dto.StartDateTime,
			End:   dto.EndDateTime,
		}),
	)
}

// CreateEvent stores a new event owned by actorID and registers the actor as
// its first attendee.
func (s *Service) CreateEvent(ctx context.Context, actorID int64, dto CreateEventDTO) (*Event, error) {
	if appErr := validateEventDTO(dto); appErr != nil {
		return nil, appErr
	}

	dm := &eventDatamodel.Event{
		EventTypeID:    dto.EventTypeID,
		Title:          strings.TrimSpace(dto.Title),
		Description:    dto.Description,
		StartDateTime:  dto.StartDateTime,
		EndDateTime:    dto.EndDateTime,
		CanBePostponed: dto.CanBePostponed,
	}
	created, err := createOwned(ctx, s.repos, actorID, dm)
	if err != nil {
		s.logger.Warn("failed to create event", "actor_id", actorID, "error", err)
		return nil, err
	}

	s.logger.Info("event created", "event_id", created.ID, "actor_id", actorID)
	return FromDataModel(created), nil
}

// UpdateEvent replaces the mutable fields of an event. Lifecycle flags are
// left untouched.
func (s *Service) UpdateEvent(ctx context.Context, eventID int64, dto UpdateEventDTO) (*Event, error) {
	if appErr := validateEventDTO(dto); appErr != nil {
		return nil, appErr
	}

	dm, err := loadEvent(ctx, s.repos.Events, eventID)
	if err != nil {
		return nil, err
	}

	dm.EventTypeID = dto.EventTypeID
	dm.Title = strings.TrimSpace(dto.Title)
	dm.Description = dto.Description
	dm.StartDateTime = dto.StartDateTime
	dm.EndDateTime = dto.EndDateTime
	dm.CanBePostponed = dto.CanBePostponed

	if err := s.repos.Events.Update(ctx, dm); err != nil {
		s.logger.Warn("failed to update event", "event_id", eventID, "error", err)
		return nil, eventError(err)
	}
	return FromDataModel(dm), nil
}

func (s *Service) GetEvent(ctx context.Context, eventID int64) (*Event, error) {
	dm, err := loadEvent(ctx, s.repos.Events, eventID)
	if err != nil {
		return nil, err
	}
	return FromDataModel(dm), nil
}

// ListEvents pages through events ordered by id. ActiveOnly hides rejected events.
func (s *Service) ListEvents(ctx context.Context, q ListQuery) (*EventsResponse, error) {
	var filters []repository.Predicate
	if q.ActiveOnly {
		filters = append(filters, repository.Eq("IsRejected", false))
	}
	if q.EventTypeID != nil {
		filters = append(filters, repository.Eq("EventTypeID", *q.EventTypeID))
	}

	page, err := s.repos.Events.FindPaged(ctx, repository.And(filters...), q.PageNumber, q.PageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*Event, len(page.Items))
	for i, dm := range page.Items {
		items[i] = FromDataModel(dm)
	}
	return &EventsResponse{
		Items:      items,
		TotalCount: page.TotalCount,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
	}, nil
}

func (s *Service) CreateEventType(ctx context.Context, dto CreateEventTypeDTO) (*EventType, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	created, err := s.repos.Types.Add(ctx, &eventDatamodel.EventType{Name: dto.Name, Description: dto.Description})
	if err != nil {
		return nil, err
	}
	s.logger.Info("event type created", "event_type_id", created.ID, "name", created.Name)
	return FromEventTypeDataModel(created), nil
}

func (s *Service) ListEventTypes(ctx context.Context) (*EventTypesResponse, error) {
	all, err := s.repos.Types.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	types := make([]*EventType, len(all))
	for i, t := range all {
		types[i] = FromEventTypeDataModel(t)
	}
	return &EventTypesResponse{EventTypes: types}, nil
}

// DeleteEventType removes the type; events referencing it keep existing
// without a type.
func (s *Service) DeleteEventType(ctx context.Context, typeID int64) error {
	t := &eventDatamodel.EventType{}
	t.ID = typeID
	if err := s.repos.Types.Delete(ctx, t); err != nil {
		return err
	}
	s.logger.Info("event type deleted", "event_type_id", typeID)
	return nil
}

// Attend registers userID for the event. Attending twice is a unique
// constraint violation.
func (s *Service) Attend(ctx context.Context, userID, eventID int64) error {
	if _, err := loadEvent(ctx, s.repos.Events, eventID); err != nil {
		return err
	}
	if _, err := s.repos.Attendance.Add(ctx, &eventDatamodel.UserEvent{UserID: userID, EventID: eventID}); err != nil {
		return err
	}
	return nil
}

func (s *Service) Leave(ctx context.Context, userID, eventID int64) error {
	rows, err := s.repos.Attendance.Find(ctx, repository.And(
		repository.Eq("UserID", userID),
		repository.Eq("EventID", eventID),
	))
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("attendance of user %d for event %d: %w", userID, eventID, repository.ErrNotFound)
	}
	return s.repos.Attendance.Delete(ctx, rows[0])
}

// GetSettings returns the user's settings, or the configured defaults when
// none are stored.
func (s *Service) GetSettings(ctx context.Context, userID int64) (*Settings, error) {
	days, err := followUpDays(ctx, s.repos.Settings, userID, s.defaultFollowUpDays)
	if err != nil {
		return nil, err
	}
	return &Settings{UserID: userID, FollowUpPeriodDays: days}, nil
}

// UpdateSettings upserts the per-user settings row.
func (s *Service) UpdateSettings(ctx context.Context, userID int64, dto SettingsDTO) (*Settings, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	existing, err := s.findSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		_, err = s.repos.Settings.Add(ctx, &eventDatamodel.EventSettings{UserID: userID, FollowUpPeriodDays: dto.FollowUpPeriodDays})
		if err == nil {
			return &Settings{UserID: userID, FollowUpPeriodDays: dto.FollowUpPeriodDays}, nil
		}
		if cv, ok := repository.IsConstraintViolation(err); !ok || cv.Kind != repository.ConstraintUnique {
			return nil, err
		}
		// a concurrent writer created the row first
		if existing, err = s.findSettings(ctx, userID); err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("settings of user %d: %w", userID, repository.ErrNotFound)
		}
	}

	existing.FollowUpPeriodDays = dto.FollowUpPeriodDays
	if err := s.repos.Settings.Update(ctx, existing); err != nil {
		return nil, err
	}
	return &Settings{UserID: userID, FollowUpPeriodDays: existing.FollowUpPeriodDays}, nil
}

func (s *Service) findSettings(ctx context.Context, userID int64) (*eventDatamodel.EventSettings, error) {
	rows, err := s.repos.Settings.Find(ctx, repository.Eq("UserID", userID))
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func followUpDays(ctx context.Context, settings repository.Store[eventDatamodel.EventSettings], userID int64, fallback int) (int, error) {
	rows, err := settings.Find(ctx, repository.Eq("UserID", userID))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || rows[0].FollowUpPeriodDays < 1 {
		return fallback, nil
	}
	return rows[0].FollowUpPeriodDays, nil
}

// loadEvent fetches an event, reporting a missing row as ErrEventNotFound.
func loadEvent(ctx context.Context, events repository.Store[eventDatamodel.Event], eventID int64) (*eventDatamodel.Event, error) {
	dm, err := events.GetByID(ctx, eventID)
	if err != nil {
		return nil, eventError(err)
	}
	return dm, nil
}

func eventError(err error) error {
	if repository.IsNotFound(err) {
		return errors.ErrEventNotFound.WithCause(err)
	}
	return err
}

// createOwned inserts the event with ownerID as creator and attendee. The
// event is removed again when the attendance row cannot be written.
func createOwned(ctx context.Context, repos Repositories, ownerID int64, dm *eventDatamodel.Event) (*eventDatamodel.Event, error) {
	if ownerID > 0 {
		dm.CreatorID = &ownerID
	}
	created, err := repos.Events.Add(ctx, dm)
	if err != nil {
		return nil, err
	}
	if ownerID < 1 {
		return created, nil
	}

	if _, err := repos.Attendance.Add(ctx, &eventDatamodel.UserEvent{UserID: ownerID, EventID: created.ID}); err != nil {
		if delErr := repos.Events.Delete(ctx, created); delErr != nil {
			return nil, fmt.Errorf("%w (rollback of event %d failed: %v)", err, created.ID, delErr)
		}
		return nil, err
	}
	return created, nil
}
