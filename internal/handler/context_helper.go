package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniroom-api/internal/middleware"
	"github.com/noah-isme/uniroom-api/internal/models"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
	"github.com/noah-isme/uniroom-api/pkg/response"
)

// actorFromContext returns the authenticated actor or writes a 401.
func actorFromContext(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return actor, true
}

func invalidPayload(c *gin.Context, err error) {
	response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
}

func invalidQuery(c *gin.Context, err error) {
	response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
}

func parseDateParam(c *gin.Context, field, raw string) (time.Time, bool) {
	date, err := models.ParseDate(raw)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, field+" must be a YYYY-MM-DD date"))
		return time.Time{}, false
	}
	return date, true
}
