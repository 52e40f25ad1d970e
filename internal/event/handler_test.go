package event_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/frahmantamala/event-scheduler/internal"
	"github.com/frahmantamala/event-scheduler/internal/event"
	eventPostgres "github.com/frahmantamala/event-scheduler/internal/event/postgres"
	"github.com/frahmantamala/event-scheduler/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Event Handler Integration", func() {
	var (
		ctx     context.Context
		handler *event.Handler
		service *event.Service
		actorID int64
	)

	request := func(method, target string, body any, params map[string]string, identity internal.Identity) *http.Request {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, target, &buf)
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		reqCtx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
		return req.WithContext(internal.ContextWithIdentity(reqCtx, identity))
	}

	BeforeEach(func() {
		ctx = context.Background()
		db := newTestDB()
		actorID = createUser(ctx, db, "planner@example.com")

		repos := eventPostgres.NewRepositories(db)
		service = event.NewService(repos, 7, quietLogger())
		lifecycle := event.NewLifecycleService(repos, internal.LifecycleConfig{}, nil, quietLogger())
		handler = event.NewHandler(transport.NewBaseHandler(quietLogger()), service, lifecycle)
	})

	It("should create an event for the caller", func() {
		w := httptest.NewRecorder()
		handler.CreateEvent(w, request(http.MethodPost, "/events", event.CreateEventDTO{Title: "retro"}, nil, internal.UserIdentity(actorID)))

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var created event.Event
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Title).To(Equal("retro"))
		Expect(*created.CreatorID).To(Equal(actorID))
	})

	It("should answer 401 when the caller has no identity", func() {
		w := httptest.NewRecorder()
		handler.CreateEvent(w, request(http.MethodPost, "/events", event.CreateEventDTO{Title: "retro"}, nil, internal.Anonymous))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should reject malformed path ids", func() {
		w := httptest.NewRecorder()
		handler.GetEvent(w, request(http.MethodGet, "/events/abc", nil, map[string]string{"id": "abc"}, internal.UserIdentity(actorID)))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should map a missing event to 404", func() {
		w := httptest.NewRecorder()
		handler.Complete(w, request(http.MethodPost, "/events/404/complete", nil, map[string]string{"id": "404"}, internal.UserIdentity(actorID)))
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeEventNotFound)))
	})

	It("should map a non-postponable event to 409", func() {
		ev, err := service.CreateEvent(ctx, actorID, event.CreateEventDTO{Title: "fixed"})
		Expect(err).NotTo(HaveOccurred())
		id := strconv.FormatInt(ev.ID, 10)

		w := httptest.NewRecorder()
		handler.Postpone(w, request(http.MethodPost, "/events/"+id+"/postpone", nil, map[string]string{"id": id}, internal.UserIdentity(actorID)))
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeNotPostponable)))
	})

	It("should answer 200 for a bulk call with mixed outcomes", func() {
		ev, err := service.CreateEvent(ctx, actorID, event.CreateEventDTO{Title: "done soon"})
		Expect(err).NotTo(HaveOccurred())

		w := httptest.NewRecorder()
		handler.BulkComplete(w, request(http.MethodPost, "/events/bulk/complete", event.BulkRequestDTO{IDs: []int64{ev.ID, 999}}, nil, internal.UserIdentity(actorID)))
		Expect(w.Code).To(Equal(http.StatusOK))

		var result event.BulkResult
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		Expect(result.Succeeded).To(Equal([]int64{ev.ID}))
		Expect(result.Failed).To(HaveLen(1))
		Expect(result.Failed[0].ID).To(Equal(int64(999)))
		Expect(result.Failed[0].Code).To(Equal(string(internal.ErrCodeEventNotFound)))
	})

	It("should refuse an empty bulk request body", func() {
		w := httptest.NewRecorder()
		handler.BulkReject(w, request(http.MethodPost, "/events/bulk/reject", event.BulkRequestDTO{IDs: []int64{}}, nil, internal.UserIdentity(actorID)))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should filter the listing to active events", func() {
		kept, err := service.CreateEvent(ctx, actorID, event.CreateEventDTO{Title: "kept"})
		Expect(err).NotTo(HaveOccurred())
		gone, err := service.CreateEvent(ctx, actorID, event.CreateEventDTO{Title: "gone"})
		Expect(err).NotTo(HaveOccurred())

		id := strconv.FormatInt(gone.ID, 10)
		w := httptest.NewRecorder()
		handler.Reject(w, request(http.MethodPost, "/events/"+id+"/reject", nil, map[string]string{"id": id}, internal.UserIdentity(actorID)))
		Expect(w.Code).To(Equal(http.StatusOK))

		w = httptest.NewRecorder()
		handler.ListEvents(w, request(http.MethodGet, "/events?active=true", nil, nil, internal.UserIdentity(actorID)))
		Expect(w.Code).To(Equal(http.StatusOK))

		var page event.EventsResponse
		Expect(json.NewDecoder(w.Body).Decode(&page)).To(Succeed())
		Expect(page.Items).To(HaveLen(1))
		Expect(page.Items[0].ID).To(Equal(kept.ID))
	})

	It("should reject a bad type filter", func() {
		w := httptest.NewRecorder()
		handler.ListEvents(w, request(http.MethodGet, "/events?type=zero", nil, nil, internal.UserIdentity(actorID)))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
