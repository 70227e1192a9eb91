package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicedesk/internal/auditcontext"
	obscontext "github.com/smallbiznis/invoicedesk/internal/observability/context"
	"github.com/smallbiznis/invoicedesk/internal/ratelimit"
)

// Actor identity is asserted by the upstream gateway.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorName = "X-Actor-Name"
	HeaderActorRole = "X-Actor-Role"
)

const actorTypeUser = "user"

// ActorRequired rejects requests without an actor id and stores the actor on the request context.
func ActorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := auditcontext.Actor{
			ID:   strings.TrimSpace(c.GetHeader(HeaderActorID)),
			Name: strings.TrimSpace(c.GetHeader(HeaderActorName)),
			Role: strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderActorRole))),
		}
		if actor.IsZero() {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := auditcontext.WithActor(c.Request.Context(), actor)
		ctx = obscontext.WithActor(ctx, actorTypeUser, actor.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RateLimited throttles requests per actor. It must run after ActorRequired.
func RateLimited(limiter *ratelimit.ActorLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		actor, _ := auditcontext.ActorFromContext(c.Request.Context())
		res := limiter.Allow(c.Request.Context(), actor.ID)
		if res.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		}
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
