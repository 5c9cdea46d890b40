package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const apiKeyHeader = "X-API-Key"

// APIKeyAuth guards the status API with a shared key, sent either as X-API-Key
// or as an Authorization bearer token. An empty key leaves the API open.
func APIKeyAuth(key string) gin.HandlerFunc {
	if key == "" {
		return func(c *gin.Context) { c.Next() }
	}
	want := []byte(key)

	return func(c *gin.Context) {
		provided := requestKey(c.Request)
		switch {
		case provided == "":
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
		case subtle.ConstantTimeCompare([]byte(provided), want) != 1:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid API key"})
		default:
			c.Next()
		}
	}
}

func requestKey(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(apiKeyHeader)); v != "" {
		return v
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
