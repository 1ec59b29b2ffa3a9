package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/listing-backend/internal/pkg/response"
)

// Route binds a method and path to the gates that run, in order, before its action.
type Route struct {
	Method string
	Path   string
	Gates  []gin.HandlerFunc
	Action response.HandlerFunc
}

// Routes returns the listing routing table. Paths are relative to /listings.
func Routes(h *ListingHandler, authMiddleware, upload gin.HandlerFunc) []Route {
	owner := h.RequireOwnership()
	validate := h.ValidateListing()

	return []Route{
		{http.MethodGet, "", nil, h.Index},
		{http.MethodPost, "", []gin.HandlerFunc{authMiddleware, upload, validate}, h.Create},
		{http.MethodGet, "/new", []gin.HandlerFunc{authMiddleware}, h.New},
		{http.MethodGet, "/:id", nil, h.Show},
		{http.MethodPut, "/:id", []gin.HandlerFunc{authMiddleware, owner, upload, validate}, h.Update},
		{http.MethodDelete, "/:id", []gin.HandlerFunc{authMiddleware, owner}, h.Delete},
		{http.MethodGet, "/:id/edit", []gin.HandlerFunc{authMiddleware, owner}, h.Edit},
	}
}

// RegisterRoutes mounts the listing routing table under /listings.
// upload is the single-file gate for the listing image.
func RegisterRoutes(r gin.IRouter, h *ListingHandler, authMiddleware, upload gin.HandlerFunc) {
	group := r.Group("/listings")

	for _, rt := range Routes(h, authMiddleware, upload) {
		chain := make([]gin.HandlerFunc, 0, len(rt.Gates)+1)
		chain = append(chain, rt.Gates...)
		chain = append(chain, response.Wrap(rt.Action))
		group.Handle(rt.Method, rt.Path, chain...)
	}
}
