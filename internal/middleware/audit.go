package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniroom-api/internal/models"
)

// AuditSink persists audit entries.
type AuditSink interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records an access log entry after successful requests. Domain writes
// audit themselves; this covers reads such as exports.
func Audit(sink AuditSink, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if sink == nil || c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if actor, ok := ActorFromContext(c); ok {
			id := actor.UserID()
			userID = &id
		}
		var resourceID *string
		if id := c.Param("id"); id != "" {
			resourceID = &id
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"query":   c.Request.URL.RawQuery,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		_ = sink.CreateAuditLog(c.Request.Context(), &models.AuditLog{
			UserID:     userID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		})
	}
}
