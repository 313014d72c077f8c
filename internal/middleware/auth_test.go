package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniroom-api/internal/models"
	appErrors "github.com/noah-isme/uniroom-api/pkg/errors"
)

type staticAuthenticator map[string]models.Actor

func (a staticAuthenticator) Authenticate(token string) (models.Actor, *models.JWTClaims, error) {
	actor, ok := a[token]
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return actor, &models.JWTClaims{UserID: actor.UserID(), Role: actor.Role()}, nil
}

type sinkStub struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (s *sinkStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return nil
}

func newAuthRouter(sink AuditSink) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := staticAuthenticator{
		"admin":   models.AdminActor{ID: "admin-1"},
		"teacher": models.TeacherActor{ID: "user-t1", TeacherID: "T1"},
		"student": models.StudentActor{ID: "student-1"},
	}
	router := gin.New()
	router.Use(JWT(auth))
	router.GET("/view", RequireCapability(models.CapabilityViewSchedule), func(c *gin.Context) {
		actor, _ := ActorFromContext(c)
		c.String(http.StatusOK, actor.UserID())
	})
	router.POST("/review/:id", RequireCapability(models.CapabilityReviewRequest), Audit(sink, "REVIEW", "room_requests"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func serve(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTResolvesActor(t *testing.T) {
	router := newAuthRouter(nil)

	rec := serve(router, http.MethodGet, "/view", "teacher")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-t1", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/view", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/view", "forged").Code)

	req := httptest.NewRequest(http.MethodGet, "/view", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireCapability(t *testing.T) {
	sink := &sinkStub{}
	router := newAuthRouter(sink)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/view", "student").Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodPost, "/review/req-1", "teacher").Code)
	assert.Empty(t, sink.logs)

	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodPost, "/review/req-1", "admin").Code)
	require.Len(t, sink.logs, 1)
	assert.Equal(t, "admin-1", *sink.logs[0].UserID)
	assert.Equal(t, "req-1", *sink.logs[0].ResourceID)
}

func TestRequireCapabilityWithoutActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", RequireCapability(models.CapabilityViewSchedule), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/", "").Code)
}
