package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheHeader reports whether a response was served from the cache.
const CacheHeader = "X-Cache"

// CacheValidUntilKey is the context key a handler sets to a time.Time after
// which its response must no longer be served.
const CacheValidUntilKey = "cache_valid_until"

type cachedResponse struct {
	status     int
	headers    http.Header
	body       []byte
	validUntil time.Time
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache holds successful GET responses keyed by request URI.
type ResponseCache struct {
	store *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewResponseCache creates a cache whose entries live for ttl, or until the
// deadline a handler sets under CacheValidUntilKey, whichever comes first.
// Deadlines are checked against now. A non-positive ttl falls back to 30
// seconds and a nil now to time.Now.
func NewResponseCache(ttl time.Duration, now func() time.Time) *ResponseCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &ResponseCache{
		store: cache.New(ttl, 2*ttl),
		ttl:   ttl,
		now:   now,
	}
}

// Flush drops every cached response.
func (rc *ResponseCache) Flush() {
	rc.store.Flush()
}

// Len returns the number of cached responses, expired ones included.
func (rc *ResponseCache) Len() int {
	return rc.store.ItemCount()
}

// Middleware serves GET requests from the cache and stores 2xx responses.
func (rc *ResponseCache) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if cached, ok := rc.lookup(key); ok {
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			if id := c.GetString(RequestIDKey); id != "" {
				c.Writer.Header().Set(RequestIDHeader, id)
			}
			c.Writer.Header().Set(CacheHeader, "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw
		blw.Header().Set(CacheHeader, "MISS")

		c.Next()

		if blw.Status() < 200 || blw.Status() >= 300 {
			return
		}

		ttl := rc.ttl
		var validUntil time.Time
		if v, ok := c.Get(CacheValidUntilKey); ok {
			validUntil, _ = v.(time.Time)
		}
		if !validUntil.IsZero() {
			remaining := validUntil.Sub(rc.now())
			if remaining <= 0 {
				return
			}
			if remaining < ttl {
				ttl = remaining
			}
		}

		headers := blw.Header().Clone()
		headers.Del(CacheHeader)
		headers.Del(RequestIDHeader)
		rc.store.Set(key, cachedResponse{
			status:     blw.Status(),
			headers:    headers,
			body:       blw.body.Bytes(),
			validUntil: validUntil,
		}, ttl)
	}
}

// lookup returns the entry for key unless its deadline has passed.
func (rc *ResponseCache) lookup(key string) (cachedResponse, bool) {
	v, found := rc.store.Get(key)
	if !found {
		return cachedResponse{}, false
	}
	cached := v.(cachedResponse)
	if !cached.validUntil.IsZero() && !rc.now().Before(cached.validUntil) {
		rc.store.Delete(key)
		return cachedResponse{}, false
	}
	return cached, true
}
