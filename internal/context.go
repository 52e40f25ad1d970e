package internal

import (
	"context"
	"strconv"
	"time"
)

type ctxKey string

const ContextIdentityKey ctxKey = "identity"

// Identity is the acting principal of a request. Subject carries the raw
// user id claim and is only meaningful when Authenticated is true.
type Identity struct {
	Subject       string
	Authenticated bool
}

// Anonymous is the identity of a request without valid credentials.
var Anonymous = Identity{}

// UserID parses Subject as a positive user id.
func (i Identity) UserID() (int64, bool) {
	if !i.Authenticated {
		return 0, false
	}
	id, err := strconv.ParseInt(i.Subject, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// UserIdentity returns the identity of a verified user.
func UserIdentity(userID int64) Identity {
	return Identity{Subject: strconv.FormatInt(userID, 10), Authenticated: true}
}

func IdentityFromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Anonymous
	}
	if id, ok := ctx.Value(ContextIdentityKey).(Identity); ok {
		return id
	}
	return Anonymous
}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, id)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
