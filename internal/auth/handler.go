package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/event-scheduler/internal"
	"github.com/frahmantamala/event-scheduler/internal/transport"
	"github.com/frahmantamala/event-scheduler/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// AuthMiddleware resolves the bearer token into an Identity. Requests without
// a valid token continue as anonymous; the gate and RequireAuthenticated
// decide what anonymous callers may do.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := internal.Anonymous

		if token := h.ExtractTokenFromHeader(r); token != "" {
			claims, err := h.Service.ValidateAccessToken(token)
			if err != nil {
				h.Logger.WarnContext(r.Context(), "token validation failed", "error", err)
			} else {
				identity = internal.Identity{Subject: claims.UserID, Authenticated: true}
			}
		}

		ctx := internal.ContextWithIdentity(r.Context(), identity)
		if identity.Authenticated {
			ctx = logger.With(ctx, "subject", identity.Subject)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuthenticated rejects anonymous callers with 401.
func (h *Handler) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := internal.IdentityFromContext(r.Context()).UserID(); !ok {
			h.WriteAppError(w, internal.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
