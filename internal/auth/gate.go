package auth

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/event-scheduler/internal"
)

// PermissionResolver answers whether a user holds a permission through any of
// its roles. Unknown users and unknown permissions resolve to false.
type PermissionResolver interface {
	HasPermission(ctx context.Context, userID int64, permission string) (bool, error)
}

// Requirement names the permission a protected action needs.
type Requirement struct {
	Permission string
}

func Require(permission string) Requirement {
	return Requirement{Permission: permission}
}

type Decision int

const (
	Undecided Decision = iota
	Granted
	Denied
)

func (d Decision) String() string {
	switch d {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	}
	return "undecided"
}

// Gate turns an identity and a requirement into a decision. It never grants
// on ambiguity: resolver errors, bad subjects and missing requirements deny.
type Gate struct {
	resolver PermissionResolver
	logger   *slog.Logger
}

func NewGate(resolver PermissionResolver, logger *slog.Logger) *Gate {
	return &Gate{resolver: resolver, logger: logger}
}

func (g *Gate) Decide(ctx context.Context, identity internal.Identity, req Requirement) Decision {
	if !identity.Authenticated {
		return Denied
	}

	userID, ok := identity.UserID()
	if !ok {
		g.logger.WarnContext(ctx, "authorization denied: unusable subject", "subject", identity.Subject)
		return Denied
	}
	if req.Permission == "" {
		return Denied
	}

	granted, err := g.resolver.HasPermission(ctx, userID, req.Permission)
	if err != nil {
		g.logger.ErrorContext(ctx, "permission lookup failed", "error", err, "user_id", userID, "permission", req.Permission)
		return Denied
	}
	if !granted {
		return Denied
	}
	return Granted
}
