// Package requestcontext provides HTTP-independent accessors for
// request-scoped values. Middleware sets them, services read them, tests
// inject them, and none of the three needs net/http for it.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	agencyKey      struct{}
	userIDKey      struct{}
	requestTimeKey struct{}
)

// WithRequestID stores a request identifier in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID retrieves the request identifier, or "" when absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// WithAgency stores the authenticated agency in the context.
func WithAgency(ctx context.Context, agency string) context.Context {
	return context.WithValue(ctx, agencyKey{}, agency)
}

// Agency retrieves the authenticated agency, or "" when absent.
func Agency(ctx context.Context) string {
	v, _ := ctx.Value(agencyKey{}).(string)
	return v
}

// WithUserID stores the authenticated user in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID retrieves the authenticated user, or "" when absent.
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey{}).(string)
	return v
}

// WithTime pins the request time, letting tests control the clock seen by
// services without a clock dependency in every constructor.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the pinned request time, falling back to time.Now.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
