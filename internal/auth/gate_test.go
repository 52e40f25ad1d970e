package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/event-scheduler/internal"
	"github.com/frahmantamala/event-scheduler/internal/transport"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type mockResolver struct {
	grants map[int64][]string
	err    error
	calls  int
}

func (m *mockResolver) HasPermission(ctx context.Context, userID int64, permission string) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	for _, p := range m.grants[userID] {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}

var _ = ginkgo.Describe("Gate", func() {
	var (
		resolver *mockResolver
		gate     *Gate
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		resolver = &mockResolver{grants: map[int64][]string{7: {"events.postpone"}}}
		gate = NewGate(resolver, quietLogger())
		ctx = context.Background()
	})

	ginkgo.It("should deny unauthenticated identities without consulting the resolver", func() {
		gomega.Expect(gate.Decide(ctx, internal.Anonymous, Require("events.postpone"))).To(gomega.Equal(Denied))
		gomega.Expect(gate.Decide(ctx, internal.Identity{Subject: "7"}, Require("events.postpone"))).To(gomega.Equal(Denied))
		gomega.Expect(resolver.calls).To(gomega.BeZero())
	})

	ginkgo.DescribeTable("should deny unusable subjects",
		func(subject string) {
			decision := gate.Decide(ctx, internal.Identity{Subject: subject, Authenticated: true}, Require("events.postpone"))
			gomega.Expect(decision).To(gomega.Equal(Denied))
			gomega.Expect(resolver.calls).To(gomega.BeZero())
		},
		ginkgo.Entry("empty", ""),
		ginkgo.Entry("non-numeric", "alice"),
		ginkgo.Entry("zero", "0"),
		ginkgo.Entry("negative", "-7"),
	)

	ginkgo.It("should deny when the resolver says no", func() {
		gomega.Expect(gate.Decide(ctx, internal.UserIdentity(7), Require("events.reject"))).To(gomega.Equal(Denied))
		gomega.Expect(resolver.calls).To(gomega.Equal(1))
	})

	ginkgo.It("should deny when the resolver fails", func() {
		resolver.err = errors.New("db down")
		gomega.Expect(gate.Decide(ctx, internal.UserIdentity(7), Require("events.postpone"))).To(gomega.Equal(Denied))
	})

	ginkgo.It("should deny an empty requirement", func() {
		gomega.Expect(gate.Decide(ctx, internal.UserIdentity(7), Requirement{})).To(gomega.Equal(Denied))
	})

	ginkgo.It("should grant only when every check passes", func() {
		gomega.Expect(gate.Decide(ctx, internal.UserIdentity(7), Require("events.postpone"))).To(gomega.Equal(Granted))
	})
})

var _ = ginkgo.Describe("RBACAuthorization", func() {
	var (
		rbac    *RBACAuthorization
		reached bool
		next    http.Handler
	)

	ginkgo.BeforeEach(func() {
		resolver := &mockResolver{grants: map[int64][]string{7: {"events.create"}}}
		rbac = NewRBACAuthorization(NewGate(resolver, quietLogger()), transport.NewBaseHandler(quietLogger()))
		reached = false
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusNoContent)
		})
	})

	serve := func(identity internal.Identity, permission string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/events", nil)
		req = req.WithContext(internal.ContextWithIdentity(req.Context(), identity))
		rec := httptest.NewRecorder()
		rbac.RequirePermission(permission)(next).ServeHTTP(rec, req)
		return rec
	}

	ginkgo.It("should pass granted requests through", func() {
		rec := serve(internal.UserIdentity(7), "events.create")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(reached).To(gomega.BeTrue())
	})

	ginkgo.It("should answer a generic forbidden body on denial", func() {
		rec := serve(internal.UserIdentity(7), "roles.manage")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(rec.Body.String()).To(gomega.MatchJSON(`{"message":"forbidden"}`))
		gomega.Expect(rec.Body.String()).NotTo(gomega.ContainSubstring("roles.manage"))
		gomega.Expect(reached).To(gomega.BeFalse())
	})

	ginkgo.It("should deny anonymous callers the same way", func() {
		rec := serve(internal.Anonymous, "events.create")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
	})
})

var _ = ginkgo.Describe("AuthMiddleware", func() {
	var (
		handler *Handler
		tokens  *JWTTokenGenerator
		seen    internal.Identity
	)

	ginkgo.BeforeEach(func() {
		tokens = NewJWTTokenGenerator("middleware-access-secret-0123456789", "middleware-refresh-secret-012345678", time.Minute, time.Hour)
		handler = NewHandler(NewService(nil, tokens, NewBcryptHasher(4), quietLogger()), quietLogger())
	})

	run := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = internal.IdentityFromContext(r.Context())
			handler.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(w, r)
		})).ServeHTTP(rec, req)
		return rec
	}

	ginkgo.It("should attach an authenticated identity for a valid token", func() {
		token, err := tokens.GenerateAccessToken("42")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		rec := run("Bearer " + token)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(seen).To(gomega.Equal(internal.UserIdentity(42)))
	})

	ginkgo.It("should continue anonymously on a bad token and stop at RequireAuthenticated", func() {
		rec := run("Bearer garbage")
		gomega.Expect(seen.Authenticated).To(gomega.BeFalse())
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("should continue anonymously without a header", func() {
		rec := run("")
		gomega.Expect(seen).To(gomega.Equal(internal.Anonymous))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})
})
