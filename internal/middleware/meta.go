package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	metaKey      = "responseMeta"
	metaStartKey = "responseMetaStart"

	// MetaCacheHit flags listings served from the catalog cache.
	MetaCacheHit = "cache_hit"
	// MetaWeekStart echoes the normalised first day of a weekly view.
	MetaWeekStart = "week_start"
	// MetaCount carries the number of items in a listing.
	MetaCount = "count"
)

// WithResponseMeta prepares per-request envelope metadata.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaStartKey, time.Now())
		c.Set(metaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetMeta records one metadata entry for the response envelope.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta, ok := metaMap(c)
	if !ok {
		meta = map[string]interface{}{}
		c.Set(metaKey, meta)
	}
	meta[key] = value
}

// SetCacheHit records whether the payload came from the catalog cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, MetaCacheHit, hit)
}

// ExtractMeta returns the collected metadata stamped with the elapsed
// processing time, or nil when nothing was recorded.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta, ok := metaMap(c)
	if !ok || len(meta) == 0 {
		return nil
	}
	if start, exists := c.Get(metaStartKey); exists {
		if t, ok := start.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(t).Milliseconds()
		}
	}
	return meta
}

func metaMap(c *gin.Context) (map[string]interface{}, bool) {
	raw, exists := c.Get(metaKey)
	if !exists {
		return nil, false
	}
	meta, ok := raw.(map[string]interface{})
	return meta, ok
}
