package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// getUserID extracts the authenticated user ID from gin context.
func getUserID(c *gin.Context) uuid.UUID {
	val, exists := c.Get("userID")
	if !exists {
		return uuid.Nil
	}
	if id, ok := val.(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// isSuperuser reports whether the authenticated user is a superuser.
func isSuperuser(c *gin.Context) bool {
	val, exists := c.Get("isSuperuser")
	if !exists {
		return false
	}
	flag, ok := val.(bool)
	return ok && flag
}

// queryInt parses an integer query parameter with a default.
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, errParse := strconv.Atoi(raw)
	if errParse != nil {
		return def
	}
	return n
}
