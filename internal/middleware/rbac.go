package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniroom-api/internal/models"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
	"github.com/noah-isme/uniroom-api/pkg/response"
)

// RequireCapability lets the request through only when the actor holds cap.
func RequireCapability(capability models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !actor.Can(capability) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "missing capability "+string(capability)))
			c.Abort()
			return
		}
		c.Next()
	}
}
