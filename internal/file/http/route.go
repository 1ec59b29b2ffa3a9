package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/listing-backend/internal/pkg/response"
)

// RegisterRoutes registers file routes. Files back public listing images, so
// no authentication is required to read them.
func RegisterRoutes(r gin.IRouter, handler *Handler) {
	group := r.Group("/files")

	group.GET("/:id", response.Wrap(handler.ServeFile))
	group.GET("/:id/thumbnail", response.Wrap(handler.ServeThumbnail))
}
