package event

import (
	"context"
	"net/http"

	"github.com/frahmantamala/event-scheduler/internal"
	"github.com/frahmantamala/event-scheduler/internal/transport"
)

type ServiceAPI interface {
	CreateEvent(ctx context.Context, actorID int64, dto CreateEventDTO) (*Event, error)
	UpdateEvent(ctx context.Context, eventID int64, dto UpdateEventDTO) (*Event, error)
	GetEvent(ctx context.Context, eventID int64) (*Event, error)
	ListEvents(ctx context.Context, q ListQuery) (*EventsResponse, error)
	CreateEventType(ctx context.Context, dto CreateEventTypeDTO) (*EventType, error)
	ListEventTypes(ctx context.Context) (*EventTypesResponse, error)
	DeleteEventType(ctx context.Context, typeID int64) error
	Attend(ctx context.Context, userID, eventID int64) error
	Leave(ctx context.Context, userID, eventID int64) error
	GetSettings(ctx context.Context, userID int64) (*Settings, error)
	UpdateSettings(ctx context.Context, userID int64, dto SettingsDTO) (*Settings, error)
}

type LifecycleAPI interface {
	Complete(ctx context.Context, actorID, eventID int64) (*Event, error)
	Postpone(ctx context.Context, actorID, eventID int64) (*Event, error)
	Reject(ctx context.Context, actorID, eventID int64) (*Event, error)
	FollowUp(ctx context.Context, actorID, eventID int64) (*Event, error)
	BulkComplete(ctx context.Context, actorID int64, ids []int64) *BulkResult
	BulkPostpone(ctx context.Context, actorID int64, ids []int64) *BulkResult
	BulkReject(ctx context.Context, actorID int64, ids []int64) *BulkResult
	BulkFollowUp(ctx context.Context, actorID int64, ids []int64) *BulkResult
}

type Handler struct {
	*transport.BaseHandler
	Service   ServiceAPI
	Lifecycle LifecycleAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, lifecycle LifecycleAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
		Lifecycle:   lifecycle,
	}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := internal.IdentityFromContext(r.Context()).UserID()
	if !ok {
		h.WriteAppError(w, internal.ErrUnauthenticated)
		return 0, false
	}
	return userID, true
}

// ListEvents handles GET /events?page=1&page_size=20&active=true&type=2
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page, err := h.QueryInt(r, "page", 1)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid page")
		return
	}
	size, err := h.QueryInt(r, "page_size", 20)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid page_size")
		return
	}

	q := ListQuery{
		PageNumber: page,
		PageSize:   size,
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	if r.URL.Query().Get("type") != "" {
		typeID, err := h.QueryInt(r, "type", 0)
		if err != nil || typeID < 1 {
			h.WriteError(w, http.StatusBadRequest, "invalid type")
			return
		}
		id := int64(typeID)
		q.EventTypeID = &id
	}

	resp, err := h.Service.ListEvents(r.Context(), q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}
	ev, err := h.Service.GetEvent(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ev)
}

// CreateEvent handles POST /events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var dto CreateEventDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	ev, err := h.Service.CreateEvent(r.Context(), actorID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, ev)
}

// UpdateEvent handles PUT /events/{id}
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}
	var dto UpdateEventDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	ev, err := h.Service.UpdateEvent(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ev)
}

// Attend handles POST /events/{id}/attend
func (h *Handler) Attend(w http.ResponseWriter, r *http.Request) {
	h.attendance(w, r, h.Service.Attend)
}

// Leave handles DELETE /events/{id}/attend
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	h.attendance(w, r, h.Service.Leave)
}

func (h *Handler) attendance(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, eventID int64) error) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}
	if err := op(r.Context(), actorID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Complete handles POST /events/{id}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Lifecycle.Complete, http.StatusOK)
}

// Postpone handles POST /events/{id}/postpone
func (h *Handler) Postpone(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Lifecycle.Postpone, http.StatusOK)
}

// Reject handles POST /events/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Lifecycle.Reject, http.StatusOK)
}

// FollowUp handles POST /events/{id}/follow-up and responds with the new event.
func (h *Handler) FollowUp(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Lifecycle.FollowUp, http.StatusCreated)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op transition, status int) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}

	ev, err := op(r.Context(), actorID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, status, ev)
}

// BulkComplete handles POST /events/bulk/complete
func (h *Handler) BulkComplete(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.Lifecycle.BulkComplete)
}

// BulkPostpone handles POST /events/bulk/postpone
func (h *Handler) BulkPostpone(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.Lifecycle.BulkPostpone)
}

// BulkReject handles POST /events/bulk/reject
func (h *Handler) BulkReject(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.Lifecycle.BulkReject)
}

// BulkFollowUp handles POST /events/bulk/follow-up
func (h *Handler) BulkFollowUp(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.Lifecycle.BulkFollowUp)
}

// bulk always answers 200; per-id failures are part of the body.
func (h *Handler) bulk(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actorID int64, ids []int64) *BulkResult) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var dto BulkRequestDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	h.WriteJSON(w, http.StatusOK, op(r.Context(), actorID, dto.IDs))
}

// ListEventTypes handles GET /event-types
func (h *Handler) ListEventTypes(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.ListEventTypes(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// CreateEventType handles POST /event-types
func (h *Handler) CreateEventType(w http.ResponseWriter, r *http.Request) {
	var dto CreateEventTypeDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	t, err := h.Service.CreateEventType(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, t)
}

// DeleteEventType handles DELETE /event-types/{id}
func (h *Handler) DeleteEventType(w http.ResponseWriter, r *http.Request) {
	id, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteEventType(r.Context(), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings handles GET /settings/events
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	settings, err := h.Service.GetSettings(r.Context(), actorID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /settings/events
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var dto SettingsDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	settings, err := h.Service.UpdateSettings(r.Context(), actorID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, settings)
}
