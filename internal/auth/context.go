package auth

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID           = "userID"
	ctxSessionID        = "sessionID"
	ctxSessionExpiresAt = "sessionExpiresAt"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetSession returns the current session id and its expiry, if the request is authenticated.
func GetSession(c *gin.Context) (id string, expiresAt time.Time, ok bool) {
	id = c.GetString(ctxSessionID)
	if id == "" {
		return "", time.Time{}, false
	}
	return id, c.GetTime(ctxSessionExpiresAt), true
}

func setPrincipal(c *gin.Context, claims *Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxSessionID, claims.ID)
	if claims.ExpiresAt != nil {
		c.Set(ctxSessionExpiresAt, claims.ExpiresAt.Time)
	}
}
