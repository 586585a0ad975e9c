package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "github.com/L-Y-21/twist-erp-sub001/internal/core/context"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorName = "X-Actor-Name"
)

// Actor middleware attaches the caller's identity to the request context.
// Authentication happens upstream; this engine only records who posted.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader(HeaderActorID)
		if actorID == "" {
			c.Next()
			return
		}

		actor := &appctx.Actor{
			UserID: actorID,
			Name:   c.GetHeader(HeaderActorName),
		}

		ctx := appctx.WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
