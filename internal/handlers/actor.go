package handler

import (
	"garage-backend/internal/services/audit"

	"github.com/gin-gonic/gin"
)

const actorHeader = "X-Actor"

// ActorMiddleware copies the X-Actor header onto the request context for audit records.
// Authentication happens upstream.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor := c.GetHeader(actorHeader); actor != "" {
			c.Request = c.Request.WithContext(audit.WithActor(c.Request.Context(), actor))
		}
		c.Next()
	}
}
