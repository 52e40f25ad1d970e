package events_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/frahmantamala/event-scheduler/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Bus Suite")
}

var _ = Describe("Bus", func() {
	var bus *events.Bus

	BeforeEach(func() {
		bus = events.NewBus(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	})

	It("should deliver asynchronously to every subscriber of the topic", func() {
		var (
			mu       sync.Mutex
			received []int64
		)
		record := func(ctx context.Context, msg events.Message) error {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, msg.(*events.LifecycleMessage).EventID)
			return nil
		}
		bus.Subscribe(events.TopicEventCompleted, record)
		bus.Subscribe(events.TopicEventCompleted, record)
		bus.Subscribe(events.TopicEventRejected, record)

		Expect(bus.Publish(context.Background(), events.NewLifecycleMessage(events.TopicEventCompleted, 5, 1, 0))).To(Succeed())
		bus.Wait()

		Expect(received).To(Equal([]int64{5, 5}))
	})

	It("should keep delivering after the publisher's context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		var seenErr error
		bus.Subscribe(events.TopicEventPostponed, func(ctx context.Context, msg events.Message) error {
			seenErr = ctx.Err()
			return nil
		})

		Expect(bus.Publish(ctx, events.NewLifecycleMessage(events.TopicEventPostponed, 1, 1, 0))).To(Succeed())
		cancel()
		bus.Wait()
		Expect(seenErr).NotTo(HaveOccurred())
	})

	It("should stop at the first failing handler when synchronous", func() {
		calls := 0
		bus.Subscribe(events.TopicEventFollowUpCreated, func(ctx context.Context, msg events.Message) error {
			calls++
			return errors.New("boom")
		})
		bus.Subscribe(events.TopicEventFollowUpCreated, func(ctx context.Context, msg events.Message) error {
			calls++
			return nil
		})

		err := bus.PublishSync(context.Background(), events.NewLifecycleMessage(events.TopicEventFollowUpCreated, 1, 2, 3))
		Expect(err).To(MatchError(ContainSubstring("boom")))
		Expect(calls).To(Equal(1))
	})

	It("should carry the derived id only for follow-ups", func() {
		msg := events.NewLifecycleMessage(events.TopicEventFollowUpCreated, 1, 2, 3)
		Expect(msg.Payload()).To(HaveKeyWithValue("result_id", int64(3)))
		Expect(msg.MessageID()).NotTo(BeEmpty())

		plain := events.NewLifecycleMessage(events.TopicEventCompleted, 1, 2, 0)
		Expect(plain.Payload()).NotTo(HaveKey("result_id"))
	})
})
