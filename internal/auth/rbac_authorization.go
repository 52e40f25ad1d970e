package auth

import (
	"net/http"

	"github.com/frahmantamala/event-scheduler/internal"
	"github.com/frahmantamala/event-scheduler/internal/transport"
)

// RBACAuthorization guards routes with the authorization gate.
type RBACAuthorization struct {
	*transport.BaseHandler
	gate *Gate
}

func NewRBACAuthorization(gate *Gate, base *transport.BaseHandler) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: base,
		gate:        gate,
	}
}

// Check runs next only when the caller is granted permission. Denials never
// say which permission was missing.
func (ra *RBACAuthorization) Check(next http.HandlerFunc, permission string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := internal.IdentityFromContext(r.Context())

		if ra.gate.Decide(r.Context(), identity, Require(permission)) != Granted {
			ra.Logger.WarnContext(r.Context(), "access denied",
				"subject", identity.Subject,
				"required_permission", permission)
			ra.WriteJSON(w, http.StatusForbidden, map[string]string{"message": "forbidden"})
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, permission)
	}
}
