package webhook_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/frahmantamala/event-scheduler/internal/core/events"
	"github.com/frahmantamala/event-scheduler/internal/webhook"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestWebhook(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Webhook Suite")
}

var _ = Describe("Client", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	It("should post every lifecycle message published on the bus", func() {
		var (
			mu     sync.Mutex
			topics []string
			bodies []webhook.Delivery
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			var d webhook.Delivery
			Expect(json.NewDecoder(r.Body).Decode(&d)).To(Succeed())
			mu.Lock()
			topics = append(topics, r.Header.Get("X-Event-Topic"))
			bodies = append(bodies, d)
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		}))
		DeferCleanup(server.Close)

		client := webhook.NewClient(webhook.Config{URL: server.URL, MaxWorkers: 2}, logger)
		DeferCleanup(client.Shutdown)

		bus := events.NewBus(logger)
		for _, topic := range events.LifecycleTopics() {
			bus.Subscribe(topic, client.Handler())
		}

		Expect(bus.Publish(context.Background(), events.NewLifecycleMessage(events.TopicEventRejected, 4, 1, 0))).To(Succeed())
		Expect(bus.Publish(context.Background(), events.NewLifecycleMessage(events.TopicEventFollowUpCreated, 4, 1, 9))).To(Succeed())
		bus.Wait()
		client.Flush()

		mu.Lock()
		defer mu.Unlock()
		Expect(topics).To(ConsistOf(events.TopicEventRejected, events.TopicEventFollowUpCreated))
		Expect(bodies).To(HaveLen(2))
		for _, d := range bodies {
			Expect(d.MessageID).NotTo(BeEmpty())
			Expect(d.Data).To(HaveKeyWithValue("event_id", BeNumerically("==", 4)))
		}
	})

	It("should retry failed deliveries up to the attempt limit", func() {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		DeferCleanup(server.Close)

		client := webhook.NewClient(webhook.Config{
			URL:          server.URL,
			MaxWorkers:   1,
			MaxAttempts:  3,
			RetryBackoff: time.Millisecond,
		}, logger)
		DeferCleanup(client.Shutdown)

		Expect(client.Enqueue(webhook.Delivery{MessageID: "m-1", Topic: events.TopicEventCompleted})).To(Succeed())
		client.Flush()
		Expect(calls.Load()).To(Equal(int32(3)))
	})

	It("should give up after the last attempt", func() {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		DeferCleanup(server.Close)

		client := webhook.NewClient(webhook.Config{
			URL:          server.URL,
			MaxWorkers:   1,
			MaxAttempts:  2,
			RetryBackoff: time.Millisecond,
		}, logger)
		DeferCleanup(client.Shutdown)

		Expect(client.Enqueue(webhook.Delivery{MessageID: "m-2", Topic: events.TopicEventPostponed})).To(Succeed())
		client.Flush()
		Expect(calls.Load()).To(Equal(int32(2)))
	})

	It("should drop deliveries when the queue is full", func() {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
			w.WriteHeader(http.StatusOK)
		}))
		DeferCleanup(server.Close)

		client := webhook.NewClient(webhook.Config{URL: server.URL, MaxWorkers: 1, QueueSize: 1, MaxAttempts: 1}, logger)
		DeferCleanup(client.Shutdown)

		var dropped int
		for i := 0; i < 10; i++ {
			if err := client.Enqueue(webhook.Delivery{MessageID: "m", Topic: events.TopicEventCompleted}); err != nil {
				dropped++
			}
		}
		close(release)
		client.Flush()
		Expect(dropped).To(BeNumerically(">", 0))
	})
})
