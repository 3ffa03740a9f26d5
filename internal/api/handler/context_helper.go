package handler

import (
	"github.com/gin-gonic/gin"

	"mentorlink/backend/pkg/response"
)

// MustGetUserID extracts the caller id set by the JWT middleware.
// On failure it writes a 401 and returns false; callers return immediately.
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole extracts the caller role set by the JWT middleware.
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	return s, true
}
