package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uniroom-api/internal/service"
)

func TestResponseMetaCollectsEntries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	router.GET("/rooms", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetMeta(c, MetaCount, 2)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})
	router.GET("/plain", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"meta": ExtractMeta(c)})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cache_hit":true`)
	assert.Contains(t, w.Body.String(), `"count":2`)
	assert.Contains(t, w.Body.String(), `"processing_time_ms"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.JSONEq(t, `{"meta":null}`, w.Body.String())
}

func TestSetMetaWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	SetCacheHit(c, false)
	meta := ExtractMeta(c)
	require.NotNil(t, meta)
	assert.Equal(t, false, meta[MetaCacheHit])
	assert.NotContains(t, meta, "processing_time_ms")
}

func TestMetricsSkipsProbeRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics, "/health"))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/rooms/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/health", "/rooms/R101", "/rooms/R102", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, uint64(3), metrics.Snapshot().RequestsTotal)
}
