package repository_test

import (
	"context"
	"errors"

	eventDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/event"
	"github.com/frahmantamala/event-scheduler/internal/core/repository"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Predicate", func() {
	var (
		ctx    context.Context
		events *repository.Repository[eventDatamodel.Event]
		typeID int64
	)

	BeforeEach(func() {
		ctx = context.Background()
		db := newTestDB()
		types := repository.New[eventDatamodel.EventType](db)
		events = repository.New[eventDatamodel.Event](db)

		meeting, err := types.Add(ctx, &eventDatamodel.EventType{Name: "meeting"})
		Expect(err).NotTo(HaveOccurred())
		typeID = meeting.ID

		Expect(events.AddRange(ctx, []*eventDatamodel.Event{
			{Title: "alpha", EventTypeID: &typeID, CanBePostponed: true},
			{Title: "beta", EventTypeID: &typeID},
			{Title: "gamma", IsCompleted: true},
			{Title: "delta", CanBePostponed: true, IsCompleted: true},
		})).To(Succeed())
	})

	titles := func(items []*eventDatamodel.Event) []string {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Title
		}
		return out
	}

	It("should combine conditions with And and Or", func() {
		found, err := events.Find(ctx, repository.Eq("CanBePostponed", true).And(repository.Eq("IsCompleted", false)))
		Expect(err).NotTo(HaveOccurred())
		Expect(titles(found)).To(ConsistOf("alpha"))

		found, err = events.Find(ctx, repository.Or(repository.Eq("title", "beta"), repository.Eq("title", "gamma")))
		Expect(err).NotTo(HaveOccurred())
		Expect(titles(found)).To(ConsistOf("beta", "gamma"))
	})

	It("should treat Eq with nil as a null check", func() {
		found, err := events.Find(ctx, repository.Eq("EventTypeID", nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(titles(found)).To(ConsistOf("gamma", "delta"))

		count, err := events.Count(ctx, repository.NotNull("EventTypeID"))
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(int64(2)))
	})

	It("should negate a condition", func() {
		found, err := events.Find(ctx, repository.Not(repository.In("Title", "alpha", "beta")))
		Expect(err).NotTo(HaveOccurred())
		Expect(titles(found)).To(ConsistOf("gamma", "delta"))
	})

	It("should match nothing for an empty In list", func() {
		exists, err := events.Any(ctx, repository.In("ID"))
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeFalse())
	})

	It("should reject unknown fields", func() {
		_, err := events.Find(ctx, repository.Eq("Venue", "hall"))
		Expect(errors.Is(err, repository.ErrInvalidArgument)).To(BeTrue())
	})

	It("should render a readable form", func() {
		p := repository.Eq("Title", "x").Or(repository.IsNull("RejectedAt"))
		Expect(p.String()).To(Equal("(Title eq [x] or RejectedAt is_null)"))
		Expect(repository.Predicate{}.IsZero()).To(BeTrue())
	})
})
