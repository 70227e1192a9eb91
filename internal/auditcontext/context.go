// Package auditcontext carries request metadata recorded on audit and delete-log entries.
package auditcontext

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
)

type ctxKey int

const (
	keyActor ctxKey = iota
	keyRequestID
	keyIPAddress
	keyUserAgent
	keyCorrelationID
)

const (
	ActorTypeUser   = "user"
	ActorTypeSystem = "system"
)

// Actor is the authenticated caller as asserted by the upstream gateway.
type Actor struct {
	ID   string
	Name string
	Role string
}

func (a Actor) IsZero() bool {
	return strings.TrimSpace(a.ID) == ""
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, keyActor, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(keyActor).(Actor)
	if !ok || actor.IsZero() {
		return Actor{}, false
	}
	return actor, true
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, keyRequestID, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, keyRequestID)
}

func WithIPAddress(ctx context.Context, ip string) context.Context {
	return withString(ctx, keyIPAddress, ip)
}

func IPAddressFromContext(ctx context.Context) string {
	return stringFrom(ctx, keyIPAddress)
}

func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return withString(ctx, keyUserAgent, userAgent)
}

func UserAgentFromContext(ctx context.Context) string {
	return stringFrom(ctx, keyUserAgent)
}

func CorrelationIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, keyCorrelationID)
}

// EnsureCorrelationID guarantees a correlation id on the context, generating a ULID when missing.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if cid := CorrelationIDFromContext(ctx); cid != "" {
		return ctx, cid
	}
	cid := ulid.Make().String()
	return withString(ctx, keyCorrelationID, cid), cid
}

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	value = strings.TrimSpace(value)
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
