package event_test

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/event-scheduler/internal"
	eventDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/event"
	"github.com/frahmantamala/event-scheduler/internal/core/repository"
	"github.com/frahmantamala/event-scheduler/internal/event"
	eventPostgres "github.com/frahmantamala/event-scheduler/internal/event/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Event Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		repos   event.Repositories
		service *event.Service
		actorID int64
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = newTestDB()
		repos = eventPostgres.NewRepositories(db)
		service = event.NewService(repos, 7, quietLogger())
		actorID = createUser(ctx, db, "owner@example.com")
	})

	Describe("CreateEvent", func() {
		It("should store the event with the actor as creator and attendee", func() {
			start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
			end := start.Add(2 * time.Hour)

			ev, err := service.CreateEvent(ctx, actorID, event.CreateEventDTO{
				Title:          "  Planning  ",
				StartDateTime:  &start,
				EndDateTime:    &end,
				CanBePostponed: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Title).To(Equal("Planning"))
			Expect(*ev.CreatorID).To(Equal(actorID))

			attending, err := repos.Attendance.Any(ctx, repository.And(
				repository.Eq("UserID", actorID),
				repository.Eq("EventID", ev.ID),
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(attending).To(BeTrue())
		})

		It("should report every violated rule", func() {
			start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
			before := start.Add(-time.Hour)
			badType := int64(-1)

			_, err := service.CreateEvent(ctx, actorID, event.CreateEventDTO{
				EventTypeID:   &badType,
				Title:         " ",
				StartDateTime: &start,
				EndDateTime:   &before,
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())

			codes := []string{}
			for _, v := range appErr.Details.(internal.ValidationErrors).Errors {
				codes = append(codes, v.Code)
			}
			Expect(codes).To(ContainElements(
				string(internal.ErrCodeInvalidTitle),
				string(internal.ErrCodeInvalidSchedule),
			))
			Expect(codes).To(HaveLen(3))

			n, err := repos.Events.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})

		It("should surface an unknown event type as a foreign key violation", func() {
			missing := int64(404)
			_, err := service.CreateEvent(ctx, actorID, event.CreateEventDTO{Title: "typed", EventTypeID: &missing})
			cv, ok := repository.IsConstraintViolation(err)
			Expect(ok).To(BeTrue())
			Expect(cv.Kind).To(Equal(repository.ConstraintForeignKey))
		})
	})

	Describe("UpdateEvent", func() {
		It("should replace the mutable fields", func() {
			ev, err := service.CreateEvent(ctx, actorID, event.CreateEventDTO{Title: "draft"})
			Expect(err).NotTo(HaveOccurred())

			desc := "final agenda"
			updated, err := service.UpdateEvent(ctx, ev.ID, event.UpdateEventDTO{Title: "final", Description: &desc, CanBePostponed: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Title).To(Equal("final"))
			Expect(updated.CanBePostponed).To(BeTrue())

			loaded, err := service.GetEvent(ctx, ev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*loaded.Description).To(Equal("final agenda"))
		})

		It("should report a missing event as EVENT_NOT_FOUND", func() {
			_, err := service.UpdateEvent(ctx, 999, event.UpdateEventDTO{Title: "x"})
			Expect(errors.Is(err, internal.ErrEventNotFound)).To(BeTrue())
			Expect(errors.Is(err, repository.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("ListEvents", func() {
		BeforeEach(func() {
			for _, title := range []string{"one", "two", "three"} {
				_, err := service.CreateEvent(ctx, actorID, event.CreateEventDTO{Title: title})
				Expect(err).NotTo(HaveOccurred())
			}
			rejected := time.Now()
			_, err := repos.Events.Add(ctx, &eventDatamodel.Event{Title: "gone", IsRejected: true, RejectedAt: &rejected})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should page in id order", func() {
			page, err := service.ListEvents(ctx, event.ListQuery{PageNumber: 2, PageSize: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.TotalCount).To(BeEquivalentTo(4))
			Expect(page.Items).To(HaveLen(2))
			Expect(page.Items[0].Title).To(Equal("three"))
		})

		It("should hide rejected events when asked for active ones", func() {
			page, err := service.ListEvents(ctx, event.ListQuery{PageNumber: 1, PageSize: 10, ActiveOnly: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.TotalCount).To(BeEquivalentTo(3))
		})

		It("should reject an invalid page size", func() {
			_, err := service.ListEvents(ctx, event.ListQuery{PageNumber: 1, PageSize: 0})
			Expect(errors.Is(err, repository.ErrInvalidArgument)).To(BeTrue())
		})
	})

	Describe("Event types", func() {
		It("should null the type of events when the type is deleted", func() {
			t, err := service.CreateEventType(ctx, event.CreateEventTypeDTO{Name: "workshop"})
			Expect(err).NotTo(HaveOccurred())
			ev, err := service.CreateEvent(ctx, actorID, event.CreateEventDTO{Title: "typed", EventTypeID: &t.ID})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteEventType(ctx, t.ID)).To(Succeed())

			loaded, err := service.GetEvent(ctx, ev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.EventTypeID).To(BeNil())

			types, err := service.ListEventTypes(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(types.EventTypes).To(BeEmpty())
		})

		It("should reject a duplicate name", func() {
			_, err := service.CreateEventType(ctx, event.CreateEventTypeDTO{Name: "talk"})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateEventType(ctx, event.CreateEventTypeDTO{Name: " talk "})
			cv, ok := repository.IsConstraintViolation(err)
			Expect(ok).To(BeTrue())
			Expect(cv.Field).To(Equal("name"))
		})
	})

	Describe("Attendance", func() {
		It("should reject attending twice and allow leaving", func() {
			ev, err := repos.Events.Add(ctx, &eventDatamodel.Event{Title: "open"})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Attend(ctx, actorID, ev.ID)).To(Succeed())
			_, dup := repository.IsConstraintViolation(service.Attend(ctx, actorID, ev.ID))
			Expect(dup).To(BeTrue())

			Expect(service.Leave(ctx, actorID, ev.ID)).To(Succeed())
			Expect(errors.Is(service.Leave(ctx, actorID, ev.ID), repository.ErrNotFound)).To(BeTrue())
		})

		It("should refuse to attend a missing event", func() {
			Expect(errors.Is(service.Attend(ctx, actorID, 999), internal.ErrEventNotFound)).To(BeTrue())
		})
	})

	Describe("Settings", func() {
		It("should fall back to the default and then upsert", func() {
			settings, err := service.GetSettings(ctx, actorID)
			Expect(err).NotTo(HaveOccurred())
			Expect(settings.FollowUpPeriodDays).To(Equal(7))

			_, err = service.UpdateSettings(ctx, actorID, event.SettingsDTO{FollowUpPeriodDays: 3})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.UpdateSettings(ctx, actorID, event.SettingsDTO{FollowUpPeriodDays: 14})
			Expect(err).NotTo(HaveOccurred())

			settings, err = service.GetSettings(ctx, actorID)
			Expect(err).NotTo(HaveOccurred())
			Expect(settings.FollowUpPeriodDays).To(Equal(14))

			n, err := repos.Settings.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(1))
		})

		It("should validate the period", func() {
			_, err := service.UpdateSettings(ctx, actorID, event.SettingsDTO{FollowUpPeriodDays: 0})
			_, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
		})

		It("should refuse a second settings row for the same user", func() {
			_, err := repos.Settings.Add(ctx, &eventDatamodel.EventSettings{UserID: actorID, FollowUpPeriodDays: 3})
			Expect(err).NotTo(HaveOccurred())

			_, err = repos.Settings.Add(ctx, &eventDatamodel.EventSettings{UserID: actorID, FollowUpPeriodDays: 9})
			cv, ok := repository.IsConstraintViolation(err)
			Expect(ok).To(BeTrue())
			Expect(cv.Kind).To(Equal(repository.ConstraintUnique))
			Expect(cv.Field).To(Equal("user_id"))
		})

		It("should update the row a concurrent writer created first", func() {
			racing := &racingSettings{Store: repos.Settings, userID: actorID}
			racingRepos := repos
			racingRepos.Settings = racing
			racingService := event.NewService(racingRepos, 7, quietLogger())

			settings, err := racingService.UpdateSettings(ctx, actorID, event.SettingsDTO{FollowUpPeriodDays: 21})
			Expect(err).NotTo(HaveOccurred())
			Expect(settings.FollowUpPeriodDays).To(Equal(21))
			Expect(racing.raced).To(BeTrue())

			rows, err := repos.Settings.Find(ctx, repository.Eq("UserID", actorID))
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].FollowUpPeriodDays).To(Equal(21))
		})
	})

	Describe("deleting an event", func() {
		It("should cascade its attendance rows", func() {
			other := createUser(ctx, db, "guest@example.com")
			ev, err := service.CreateEvent(ctx, actorID, event.CreateEventDTO{Title: "kickoff"})
			Expect(err).NotTo(HaveOccurred())
			Expect(service.Attend(ctx, other, ev.ID)).To(Succeed())

			kept, err := service.CreateEvent(ctx, other, event.CreateEventDTO{Title: "retro"})
			Expect(err).NotTo(HaveOccurred())

			n, err := repos.Attendance.Count(ctx, repository.Eq("EventID", ev.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(2))

			dm, err := repos.Events.GetByID(ctx, ev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(repos.Events.Delete(ctx, dm)).To(Succeed())

			n, err = repos.Attendance.Count(ctx, repository.Eq("EventID", ev.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())

			n, err = repos.Attendance.Count(ctx, repository.Eq("EventID", kept.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(1))
		})
	})
})

// racingSettings hides the user's settings row on the first lookup and
// inserts it behind the caller's back, as a concurrent request would.
type racingSettings struct {
	repository.Store[eventDatamodel.EventSettings]
	userID int64
	raced  bool
}

func (r *racingSettings) Find(ctx context.Context, p repository.Predicate) ([]*eventDatamodel.EventSettings, error) {
	if r.raced {
		return r.Store.Find(ctx, p)
	}
	r.raced = true
	if _, err := r.Store.Add(ctx, &eventDatamodel.EventSettings{UserID: r.userID, FollowUpPeriodDays: 2}); err != nil {
		return nil, err
	}
	return nil, nil
}
