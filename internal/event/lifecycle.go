package event

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/frahmantamala/event-scheduler/internal"
	"github.com/frahmantamala/event-scheduler/internal/core/common/validation"
	eventDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/event"
	"github.com/frahmantamala/event-scheduler/internal/core/events"
	"github.com/frahmantamala/event-scheduler/internal/core/repository"
	"github.com/frahmantamala/event-scheduler/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const followUpTitlePrefix = "Follow-up: "

// Publisher receives a message for every applied transition.
type Publisher interface {
	Publish(ctx context.Context, msg events.Message) error
}

// LifecycleService applies state transitions to events, one at a time or in
// bulk.
type LifecycleService struct {
	repos     Repositories
	cfg       internal.LifecycleConfig
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

type LifecycleOption func(*LifecycleService)

// WithClock replaces time.Now, used for RejectedAt.
func WithClock(now func() time.Time) LifecycleOption {
	return func(s *LifecycleService) {
		s.now = now
	}
}

func NewLifecycleService(repos Repositories, cfg internal.LifecycleConfig, publisher Publisher, logger *slog.Logger, opts ...LifecycleOption) *LifecycleService {
	if cfg.PostponeShift <= 0 {
		cfg.PostponeShift = 24 * time.Hour
	}
	if cfg.DefaultFollowUpDays < 1 {
		cfg.DefaultFollowUpDays = 7
	}
	if cfg.BulkConcurrency < 1 {
		cfg.BulkConcurrency = 1
	}

	s := &LifecycleService{
		repos:     repos,
		cfg:       cfg,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Complete marks the event completed. Completing twice is a no-op success.
func (s *LifecycleService) Complete(ctx context.Context, actorID, eventID int64) (*Event, error) {
	dm, err := s.activeEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !dm.IsCompleted {
		dm.IsCompleted = true
		if err := s.repos.Events.Update(ctx, dm); err != nil {
			return nil, eventError(err)
		}
	}

	s.notify(ctx, events.TopicEventCompleted, eventID, actorID, 0)
	return FromDataModel(dm), nil
}

// Postpone shifts the schedule by the configured amount. Only events flagged
// CanBePostponed qualify.
func (s *LifecycleService) Postpone(ctx context.Context, actorID, eventID int64) (*Event, error) {
	dm, err := s.activeEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !dm.CanBePostponed {
		return nil, internal.ErrNotPostponable
	}

	dm.StartDateTime = shifted(dm.StartDateTime, s.cfg.PostponeShift)
	dm.EndDateTime = shifted(dm.EndDateTime, s.cfg.PostponeShift)
	if err := s.repos.Events.Update(ctx, dm); err != nil {
		return nil, eventError(err)
	}

	s.notify(ctx, events.TopicEventPostponed, eventID, actorID, 0)
	return FromDataModel(dm), nil
}

// Reject withdraws the event from active scheduling. The row and its
// attendance are kept.
func (s *LifecycleService) Reject(ctx context.Context, actorID, eventID int64) (*Event, error) {
	dm, err := s.activeEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	rejectedAt := s.now().UTC()
	dm.IsRejected = true
	dm.RejectedAt = &rejectedAt
	if err := s.repos.Events.Update(ctx, dm); err != nil {
		return nil, eventError(err)
	}

	s.notify(ctx, events.TopicEventRejected, eventID, actorID, 0)
	return FromDataModel(dm), nil
}

// FollowUp creates a new event derived from eventID, scheduled the actor's
// follow-up period later. The actor owns and attends the new event.
func (s *LifecycleService) FollowUp(ctx context.Context, actorID, eventID int64) (*Event, error) {
	source, err := loadEvent(ctx, s.repos.Events, eventID)
	if err != nil {
		return nil, err
	}

	days, err := followUpDays(ctx, s.repos.Settings, actorID, s.cfg.DefaultFollowUpDays)
	if err != nil {
		return nil, err
	}
	offset := time.Duration(days) * 24 * time.Hour

	created, err := createOwned(ctx, s.repos, actorID, &eventDatamodel.Event{
		EventTypeID:    source.EventTypeID,
		Title:          followUpTitle(source.Title),
		Description:    source.Description,
		StartDateTime:  shifted(source.StartDateTime, offset),
		EndDateTime:    shifted(source.EndDateTime, offset),
		CanBePostponed: source.CanBePostponed,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, events.TopicEventFollowUpCreated, eventID, actorID, created.ID)
	return FromDataModel(created), nil
}

// activeEvent loads an event that has not been rejected.
func (s *LifecycleService) activeEvent(ctx context.Context, eventID int64) (*eventDatamodel.Event, error) {
	dm, err := loadEvent(ctx, s.repos.Events, eventID)
	if err != nil {
		return nil, err
	}
	if dm.IsRejected {
		return nil, internal.ErrEventRejected
	}
	return dm, nil
}

// notify logs through the request-scoped logger so the entry carries the
// request id and subject.
func (s *LifecycleService) notify(ctx context.Context, topic string, eventID, actorID, resultID int64) {
	logger.From(ctx).InfoContext(ctx, "event transition applied", "topic", topic, "event_id", eventID, "actor_id", actorID)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewLifecycleMessage(topic, eventID, actorID, resultID)); err != nil {
		s.logger.Error("failed to publish lifecycle message", "topic", topic, "event_id", eventID, "error", err)
	}
}

func followUpTitle(title string) string {
	t := followUpTitlePrefix + title
	if utf8.RuneCountInString(t) <= validation.MaxTitleLength {
		return t
	}
	return string([]rune(t)[:validation.MaxTitleLength])
}

// BulkFailure names one id the batch could not process.
type BulkFailure struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// BulkResult lists outcomes in input order. Created holds the ids of derived
// events and is only set by follow-ups, aligned with Succeeded.
type BulkResult struct {
	Succeeded []int64       `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
	Created   []int64       `json:"created,omitempty"`
}

type transition func(ctx context.Context, actorID, eventID int64) (*Event, error)

func (s *LifecycleService) BulkComplete(ctx context.Context, actorID int64, ids []int64) *BulkResult {
	return s.runBulk(ctx, "complete", actorID, ids, s.Complete, false)
}

func (s *LifecycleService) BulkPostpone(ctx context.Context, actorID int64, ids []int64) *BulkResult {
	return s.runBulk(ctx, "postpone", actorID, ids, s.Postpone, false)
}

func (s *LifecycleService) BulkReject(ctx context.Context, actorID int64, ids []int64) *BulkResult {
	return s.runBulk(ctx, "reject", actorID, ids, s.Reject, false)
}

func (s *LifecycleService) BulkFollowUp(ctx context.Context, actorID int64, ids []int64) *BulkResult {
	return s.runBulk(ctx, "follow_up", actorID, ids, s.FollowUp, true)
}

type bulkOutcome struct {
	result *Event
	err    error
}

// runBulk applies op to every id independently. Items may run concurrently up
// to BulkConcurrency but the result keeps the input order. A started batch is
// not cancelled by the caller's context.
func (s *LifecycleService) runBulk(ctx context.Context, name string, actorID int64, ids []int64, op transition, collectCreated bool) *BulkResult {
	ctx = context.WithoutCancel(ctx)
	outcomes := make([]bulkOutcome, len(ids))

	var g errgroup.Group
	g.SetLimit(s.cfg.BulkConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			ev, err := op(ctx, actorID, id)
			outcomes[i] = bulkOutcome{result: ev, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := &BulkResult{Succeeded: []int64{}, Failed: []BulkFailure{}}
	for i, o := range outcomes {
		if o.err != nil {
			result.Failed = append(result.Failed, failureOf(ids[i], o.err))
			continue
		}
		result.Succeeded = append(result.Succeeded, ids[i])
		if collectCreated {
			result.Created = append(result.Created, o.result.ID)
		}
	}

	s.logger.Info("bulk transition finished",
		"operation", name,
		"actor_id", actorID,
		"requested", len(ids),
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed))
	return result
}

func failureOf(id int64, err error) BulkFailure {
	if appErr, ok := internal.IsAppError(err); ok {
		return BulkFailure{ID: id, Code: string(appErr.Code), Reason: appErr.GetDetailedMessage()}
	}
	if cv, ok := repository.IsConstraintViolation(err); ok {
		return BulkFailure{ID: id, Code: string(internal.ErrCodeConstraintViolation), Reason: cv.Error()}
	}
	if repository.IsNotFound(err) {
		return BulkFailure{ID: id, Code: string(internal.ErrCodeNotFound), Reason: err.Error()}
	}
	return BulkFailure{ID: id, Code: string(internal.ErrCodeInternal), Reason: "internal error"}
}
