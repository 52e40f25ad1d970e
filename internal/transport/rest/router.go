package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/event-scheduler/internal/auth"
	"github.com/frahmantamala/event-scheduler/internal/event"
	"github.com/frahmantamala/event-scheduler/internal/rbac"
	"github.com/frahmantamala/event-scheduler/internal/transport/middleware"
	"github.com/frahmantamala/event-scheduler/internal/transport/swagger"
	"github.com/frahmantamala/event-scheduler/internal/user"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
)

// Handlers bundles everything the router mounts. Nil handlers are skipped.
type Handlers struct {
	Health *HealthHandler
	Auth   *auth.Handler
	Guard  *auth.RBACAuthorization
	Users  *user.Handler
	RBAC   *rbac.Handler
	Events *event.Handler
	// OpenAPI, when set, is served at swagger.SpecURL next to the Swagger UI.
	OpenAPI *openapi3.T
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, allowedOrigins string, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	if h.OpenAPI != nil {
		router.Handle(swagger.SpecURL, swagger.SpecHandler(h.OpenAPI))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth == nil || h.Guard == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
		})

		// Every other route needs a valid bearer token; permissions are
		// checked per route on top of that.
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(h.Auth.RequireAuthenticated)
			need := h.Guard.RequirePermission

			if h.Users != nil {
				pr.Get("/users/me", h.Users.GetCurrentUser)
				pr.With(need(rbac.PermUsersCreate)).Post("/users", h.Users.CreateUser)
				pr.With(need(rbac.PermUsersDelete)).Delete("/users/{id}", h.Users.DeleteUser)
			}

			if h.RBAC != nil {
				pr.Group(func(mr chi.Router) {
					mr.Use(need(rbac.PermRolesManage))
					mr.Get("/roles", h.RBAC.ListRoles)
					mr.Post("/roles", h.RBAC.CreateRole)
					mr.Delete("/roles/{id}", h.RBAC.DeleteRole)
					mr.Post("/roles/{id}/permissions", h.RBAC.GrantPermission)
					mr.Delete("/roles/{id}/permissions/{permissionID}", h.RBAC.RevokePermission)
					mr.Get("/permissions", h.RBAC.ListPermissions)
					mr.Post("/permissions", h.RBAC.CreatePermission)
				})
				pr.Group(func(ar chi.Router) {
					ar.Use(need(rbac.PermRolesAssign))
					ar.Post("/users/{id}/roles", h.RBAC.AssignRole)
					ar.Delete("/users/{id}/roles/{roleID}", h.RBAC.RevokeRole)
				})
			}

			if h.Events != nil {
				registerEventRoutes(pr, h.Events, need)
			}
		})
	})
}

func registerEventRoutes(r chi.Router, eh *event.Handler, need func(string) func(http.Handler) http.Handler) {
	r.Route("/events", func(er chi.Router) {
		er.Get("/", eh.ListEvents)
		er.With(need(rbac.PermEventsCreate)).Post("/", eh.CreateEvent)

		er.Route("/bulk", func(br chi.Router) {
			br.With(need(rbac.PermEventsComplete)).Post("/complete", eh.BulkComplete)
			br.With(need(rbac.PermEventsPostpone)).Post("/postpone", eh.BulkPostpone)
			br.With(need(rbac.PermEventsReject)).Post("/reject", eh.BulkReject)
			br.With(need(rbac.PermEventsFollowUp)).Post("/follow-up", eh.BulkFollowUp)
		})

		er.Get("/{id}", eh.GetEvent)
		er.With(need(rbac.PermEventsUpdate)).Put("/{id}", eh.UpdateEvent)
		er.With(need(rbac.PermEventsAttend)).Post("/{id}/attend", eh.Attend)
		er.With(need(rbac.PermEventsAttend)).Delete("/{id}/attend", eh.Leave)
		er.With(need(rbac.PermEventsComplete)).Post("/{id}/complete", eh.Complete)
		er.With(need(rbac.PermEventsPostpone)).Post("/{id}/postpone", eh.Postpone)
		er.With(need(rbac.PermEventsReject)).Post("/{id}/reject", eh.Reject)
		er.With(need(rbac.PermEventsFollowUp)).Post("/{id}/follow-up", eh.FollowUp)
	})

	r.Get("/event-types", eh.ListEventTypes)
	r.With(need(rbac.PermEventTypesManage)).Post("/event-types", eh.CreateEventType)
	r.With(need(rbac.PermEventTypesManage)).Delete("/event-types/{id}", eh.DeleteEventType)

	r.Get("/settings/events", eh.GetSettings)
	r.With(need(rbac.PermSettingsManage)).Put("/settings/events", eh.UpdateSettings)
}
