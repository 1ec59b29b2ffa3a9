package auth

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/listing-backend/internal/pkg/response"
)

var (
	ErrMissingToken   = apperror.Unauthenticated("missing Authorization header")
	ErrMalformedToken = apperror.Unauthenticated("invalid Authorization header format")
	ErrInvalidToken   = apperror.Unauthenticated("invalid or expired token")
	ErrSessionEnded   = apperror.Unauthenticated("session has ended, please log in again")
)

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>.
// It reads nothing but the header, so a rejected request never has its body parsed.
// sessions may be nil, in which case logout revocation is not enforced.
func AuthRequired(jwtManager *JWTManager, sessions SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, ErrMissingToken)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			response.Abort(c, ErrMalformedToken)
			return
		}

		claims, err := jwtManager.ParseAndValidate(parts[1])
		if err != nil {
			response.Abort(c, ErrInvalidToken.WithCause(err))
			return
		}

		if sessions != nil && claims.ID != "" {
			revoked, err := sessions.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				response.Abort(c, apperror.Upstream(fmt.Errorf("session lookup: %w", err), "session store unavailable"))
				return
			}
			if revoked {
				response.Abort(c, ErrSessionEnded)
				return
			}
		}

		// Store user info into Gin context for later handlers.
		setPrincipal(c, claims)

		c.Next()
	}
}
