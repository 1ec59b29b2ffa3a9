package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/listing-backend/internal/pkg/response"
)

// RegisterRoutes registers account routes. limiter guards the credential endpoints.
func RegisterRoutes(g gin.IRouter, h *UserHandler, authMiddleware, limiter gin.HandlerFunc) {
	// Public Routes
	authGroup := g.Group("/auth")
	{
		authGroup.POST("/register", limiter, response.Wrap(h.Register))
		authGroup.POST("/login", limiter, response.Wrap(h.Login))
		authGroup.POST("/logout", authMiddleware, response.Wrap(h.Logout))
	}

	// Authenticated Routes
	g.GET("/me", authMiddleware, response.Wrap(h.Me))
}
