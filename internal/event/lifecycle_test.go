package event_test

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/event-scheduler/internal"
	eventDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/event"
	"github.com/frahmantamala/event-scheduler/internal/core/events"
	"github.com/frahmantamala/event-scheduler/internal/core/repository"
	"github.com/frahmantamala/event-scheduler/internal/event"
	eventPostgres "github.com/frahmantamala/event-scheduler/internal/event/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Lifecycle Service", func() {
	var (
		ctx       context.Context
		db        *gorm.DB
		repos     event.Repositories
		publisher *recordingPublisher
		lifecycle *event.LifecycleService
		actorID   int64
		start     time.Time
		fixedNow  time.Time
	)

	addEvent := func(title string, postponable bool) *eventDatamodel.Event {
		end := start.Add(time.Hour)
		ev, err := repos.Events.Add(ctx, &eventDatamodel.Event{
			Title:          title,
			StartDateTime:  &start,
			EndDateTime:    &end,
			CanBePostponed: postponable,
		})
		Expect(err).NotTo(HaveOccurred())
		return ev
	}

	BeforeEach(func() {
		ctx = context.Background()
		db = newTestDB()
		repos = eventPostgres.NewRepositories(db)
		publisher = &recordingPublisher{}
		start = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
		fixedNow = time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
		lifecycle = event.NewLifecycleService(repos, internal.LifecycleConfig{
			PostponeShift:       24 * time.Hour,
			DefaultFollowUpDays: 7,
			BulkConcurrency:     1,
		}, publisher, quietLogger(), event.WithClock(func() time.Time { return fixedNow }))
		actorID = createUser(ctx, db, "actor@example.com")
	})

	Describe("Complete", func() {
		It("should set the flag and stay idempotent", func() {
			ev := addEvent("done", false)

			completed, err := lifecycle.Complete(ctx, actorID, ev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(completed.IsCompleted).To(BeTrue())

			again, err := lifecycle.Complete(ctx, actorID, ev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.IsCompleted).To(BeTrue())
			Expect(publisher.topics()).To(Equal([]string{events.TopicEventCompleted, events.TopicEventCompleted}))
		})

		It("should report a missing event", func() {
			_, err := lifecycle.Complete(ctx, actorID, 404)
			Expect(errors.Is(err, internal.ErrEventNotFound)).To(BeTrue())
			Expect(publisher.topics()).To(BeEmpty())
		})
	})

	Describe("Postpone", func() {
		It("should shift start and end by the configured amount", func() {
			ev := addEvent("movable", true)

			postponed, err := lifecycle.Postpone(ctx, actorID, ev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*postponed.StartDateTime).To(BeTemporally("==", start.Add(24*time.Hour)))

			stored, err := repos.Events.GetByID(ctx, ev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*stored.StartDateTime).To(BeTemporally("==", start.Add(24*time.Hour)))
			Expect(*stored.EndDateTime).To(BeTemporally("==", start.Add(25*time.Hour)))
		})

		It("should refuse events that cannot be postponed and leave them unchanged", func() {
			ev := addEvent("fixed", false)

			_, err := lifecycle.Postpone(ctx, actorID, ev.ID)
			Expect(errors.Is(err, internal.ErrNotPostponable)).To(BeTrue())

			stored, err := repos.Events.GetByID(ctx, ev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*stored.StartDateTime).To(BeTemporally("==", start))
		})

		It("should succeed on an unscheduled event", func() {
			ev, err := repos.Events.Add(ctx, &eventDatamodel.Event{Title: "someday", CanBePostponed: true})
			Expect(err).NotTo(HaveOccurred())

			postponed, err := lifecycle.Postpone(ctx, actorID, ev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(postponed.StartDateTime).To(BeNil())
		})
	})

	Describe("Reject", func() {
		It("should soft reject and keep attendance", func() {
			ev := addEvent("doomed", true)
			_, err := repos.Attendance.Add(ctx, &eventDatamodel.UserEvent{UserID: actorID, EventID: ev.ID})
			Expect(err).NotTo(HaveOccurred())

			rejected, err := lifecycle.Reject(ctx, actorID, ev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.IsRejected).To(BeTrue())
			Expect(*rejected.RejectedAt).To(BeTemporally("==", fixedNow))

			n, err := repos.Attendance.Count(ctx, repository.Eq("EventID", ev.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeEquivalentTo(1))
		})

		It("should block further transitions on a rejected event", func() {
			ev := addEvent("doomed", true)
			_, err := lifecycle.Reject(ctx, actorID, ev.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = lifecycle.Reject(ctx, actorID, ev.ID)
			Expect(errors.Is(err, internal.ErrEventRejected)).To(BeTrue())
			_, err = lifecycle.Postpone(ctx, actorID, ev.ID)
			Expect(errors.Is(err, internal.ErrEventRejected)).To(BeTrue())
			_, err = lifecycle.Complete(ctx, actorID, ev.ID)
			Expect(errors.Is(err, internal.ErrEventRejected)).To(BeTrue())

			_, err = lifecycle.FollowUp(ctx, actorID, ev.ID)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("FollowUp", func() {
		It("should use the default period when the actor has no settings", func() {
			ev := addEvent("retro", true)

			followUp, err := lifecycle.FollowUp(ctx, actorID, ev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(followUp.ID).NotTo(Equal(ev.ID))
			Expect(followUp.Title).To(Equal("Follow-up: retro"))
			Expect(*followUp.CreatorID).To(Equal(actorID))
			Expect(followUp.CanBePostponed).To(BeTrue())
			Expect(*followUp.StartDateTime).To(BeTemporally("==", start.Add(7*24*time.Hour)))

			attending, err := repos.Attendance.Any(ctx, repository.And(
				repository.Eq("UserID", actorID),
				repository.Eq("EventID", followUp.ID),
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(attending).To(BeTrue())

			Expect(publisher.messages).To(HaveLen(1))
			Expect(publisher.messages[0].EventID).To(Equal(ev.ID))
			Expect(publisher.messages[0].ResultID).To(Equal(followUp.ID))
		})

		It("should use the actor's configured period", func() {
			_, err := repos.Settings.Add(ctx, &eventDatamodel.EventSettings{UserID: actorID, FollowUpPeriodDays: 2})
			Expect(err).NotTo(HaveOccurred())
			ev := addEvent("sync", false)

			followUp, err := lifecycle.FollowUp(ctx, actorID, ev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*followUp.StartDateTime).To(BeTemporally("==", start.Add(48*time.Hour)))
		})

		It("should keep the derived title within the limit", func() {
			ev := addEvent(strings.Repeat("é", 200), false)

			followUp, err := lifecycle.FollowUp(ctx, actorID, ev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect([]rune(followUp.Title)).To(HaveLen(200))
			Expect(followUp.Title).To(HavePrefix("Follow-up: "))
		})
	})

	Describe("Bulk operations", func() {
		It("should postpone per item and report failures in input order", func() {
			first := addEvent("a", true)
			second := addEvent("b", false)
			third := addEvent("c", true)

			result := lifecycle.BulkPostpone(ctx, actorID, []int64{first.ID, second.ID, third.ID})
			Expect(result.Succeeded).To(Equal([]int64{first.ID, third.ID}))
			Expect(result.Failed).To(HaveLen(1))
			Expect(result.Failed[0].ID).To(Equal(second.ID))
			Expect(result.Failed[0].Code).To(Equal(string(internal.ErrCodeNotPostponable)))

			stored, err := repos.Events.GetByID(ctx, third.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*stored.StartDateTime).To(BeTemporally("==", start.Add(24*time.Hour)))
		})

		It("should not let a missing id block the rest", func() {
			ev := addEvent("real", false)

			result := lifecycle.BulkComplete(ctx, actorID, []int64{999, ev.ID})
			Expect(result.Succeeded).To(Equal([]int64{ev.ID}))
			Expect(result.Failed).To(Equal([]event.BulkFailure{{
				ID:     999,
				Code:   string(internal.ErrCodeEventNotFound),
				Reason: "Event not found",
			}}))
		})

		It("should reject, then report already rejected duplicates", func() {
			ev := addEvent("dup", true)

			result := lifecycle.BulkReject(ctx, actorID, []int64{ev.ID, ev.ID})
			Expect(result.Succeeded).To(Equal([]int64{ev.ID}))
			Expect(result.Failed).To(HaveLen(1))
			Expect(result.Failed[0].Code).To(Equal(string(internal.ErrCodeEventRejected)))
		})

		It("should list created follow-ups alongside their sources", func() {
			a := addEvent("a", false)
			b := addEvent("b", false)

			result := lifecycle.BulkFollowUp(ctx, actorID, []int64{a.ID, b.ID})
			Expect(result.Succeeded).To(Equal([]int64{a.ID, b.ID}))
			Expect(result.Created).To(HaveLen(2))

			created, err := repos.Events.GetByID(ctx, result.Created[1])
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Title).To(Equal("Follow-up: b"))
		})

		It("should keep input order when items run concurrently", func() {
			concurrent := event.NewLifecycleService(repos, internal.LifecycleConfig{BulkConcurrency: 4}, nil, quietLogger())
			ids := []int64{}
			for _, title := range []string{"e", "d", "c", "b", "a"} {
				ids = append([]int64{addEvent(title, title != "c").ID}, ids...)
			}
			ids = append(ids, 12345)

			result := concurrent.BulkPostpone(ctx, actorID, ids)
			Expect(result.Succeeded).To(Equal([]int64{ids[0], ids[1], ids[3], ids[4]}))
			Expect(result.Failed).To(HaveLen(2))
			Expect(result.Failed[0].ID).To(Equal(ids[2]))
			Expect(result.Failed[1].ID).To(Equal(int64(12345)))
		})

		It("should return empty lists for an empty batch", func() {
			result := lifecycle.BulkComplete(ctx, actorID, nil)
			Expect(result.Succeeded).To(BeEmpty())
			Expect(result.Failed).To(BeEmpty())
		})
	})
})
