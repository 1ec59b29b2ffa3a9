package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/listing-backend/internal/auth"
	"github.com/nekogravitycat/listing-backend/internal/listing"
	"github.com/nekogravitycat/listing-backend/internal/pkg/request"
	"github.com/nekogravitycat/listing-backend/internal/pkg/response"
)

var errMissingGate = errors.New("listing route is missing a required gate")

type ListingHandler struct {
	service   listing.Service
	validator *listing.Validator
	maxUpload int64
}

// NewHandler creates the listing handler. maxUpload is advertised in form
// descriptors and should match the upload gate's limit.
func NewHandler(service listing.Service, validator *listing.Validator, maxUpload int64) *ListingHandler {
	if validator == nil {
		validator = listing.NewValidator()
	}
	return &ListingHandler{
		service:   service,
		validator: validator,
		maxUpload: maxUpload,
	}
}

// Index lists listings with pagination, filtering and sorting.
func (h *ListingHandler) Index(c *gin.Context) error {
	var req ListListingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return request.BindingError("invalid query parameters", err)
	}

	filter := req.toFilter()
	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, response.MapPage(items, NewListingResponse, filter.Page, filter.PageSize, total))
	return nil
}

// Create stores a listing owned by the authenticated user.
func (h *ListingHandler) Create(c *gin.Context) error {
	in, ok := validatedInput(c)
	if !ok {
		return errMissingGate
	}

	l, err := h.service.Create(c.Request.Context(), auth.GetUserID(c), in)
	if err != nil {
		return err
	}

	c.JSON(http.StatusCreated, NewListingResponse(l))
	return nil
}

// New describes the form used to create a listing.
func (h *ListingHandler) New(c *gin.Context) error {
	c.JSON(http.StatusOK, newFormDescriptor("/listings", http.MethodPost, h.maxUpload))
	return nil
}

// Show returns a single listing.
func (h *ListingHandler) Show(c *gin.Context) error {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		return listing.ErrNotFound
	}

	l, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, NewListingResponse(l))
	return nil
}

// Update replaces the listing resolved by the ownership gate.
func (h *ListingHandler) Update(c *gin.Context) error {
	current := currentListing(c)
	in, ok := validatedInput(c)
	if current == nil || !ok {
		return errMissingGate
	}

	l, err := h.service.Update(c.Request.Context(), current.ID, in)
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, NewListingResponse(l))
	return nil
}

// Delete removes the listing resolved by the ownership gate.
func (h *ListingHandler) Delete(c *gin.Context) error {
	current := currentListing(c)
	if current == nil {
		return errMissingGate
	}

	if err := h.service.Delete(c.Request.Context(), current.ID); err != nil {
		return err
	}

	c.JSON(http.StatusOK, gin.H{"message": "listing deleted"})
	return nil
}

// Edit describes the form used to update the listing, prefilled with its
// current values.
func (h *ListingHandler) Edit(c *gin.Context) error {
	current := currentListing(c)
	if current == nil {
		return errMissingGate
	}

	c.JSON(http.StatusOK, newEditFormDescriptor(current, h.maxUpload))
	return nil
}
