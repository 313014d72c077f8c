package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniroom-api/internal/models"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
	"github.com/noah-isme/uniroom-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextActorKey is the gin context key storing the models.Actor.
	ContextActorKey = "currentActor"
)

// Authenticator resolves a bearer token into the calling actor.
type Authenticator interface {
	Authenticate(token string) (models.Actor, *models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token.
func JWT(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		actor, claims, err := auth.Authenticate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return nil, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}
