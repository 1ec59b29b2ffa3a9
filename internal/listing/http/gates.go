package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/listing-backend/internal/auth"
	filehttp "github.com/nekogravitycat/listing-backend/internal/file/http"
	"github.com/nekogravitycat/listing-backend/internal/listing"
	"github.com/nekogravitycat/listing-backend/internal/pkg/request"
	"github.com/nekogravitycat/listing-backend/internal/pkg/response"
)

const (
	ctxListing      = "listing"
	ctxListingInput = "listingInput"
)

// RequireOwnership resolves :id and lets the request through only when the
// authenticated user owns the listing. Unknown ids fail before ownership is
// considered. Must run after the auth gate.
func (h *ListingHandler) RequireOwnership() gin.HandlerFunc {
	return response.Wrap(func(c *gin.Context) error {
		var req request.ByIDRequest
		if err := c.ShouldBindUri(&req); err != nil || !req.Valid() {
			return listing.ErrNotFound
		}

		l, err := h.service.GetByID(c.Request.Context(), req.ID)
		if err != nil {
			return err
		}
		if !l.OwnedBy(auth.GetUserID(c)) {
			return listing.ErrForbidden
		}

		c.Set(ctxListing, l)
		return nil
	})
}

// ValidateListing binds the listing fields from a JSON or form body, merges
// the uploaded image if any, and checks the result.
func (h *ListingHandler) ValidateListing() gin.HandlerFunc {
	return response.Wrap(func(c *gin.Context) error {
		var req ListingRequest
		if err := c.ShouldBind(&req); err != nil {
			return request.BindingError("invalid listing", err)
		}

		in, err := req.toInput()
		if err != nil {
			return err
		}
		if f, ok := filehttp.Uploaded(c); ok {
			in.ImageFileID = &f.ID
		}
		if err := h.validator.Validate(&in); err != nil {
			return err
		}

		c.Set(ctxListingInput, in)
		return nil
	})
}

func currentListing(c *gin.Context) *listing.Listing {
	v, _ := c.Get(ctxListing)
	l, _ := v.(*listing.Listing)
	return l
}

func validatedInput(c *gin.Context) (listing.Input, bool) {
	v, ok := c.Get(ctxListingInput)
	if !ok {
		return listing.Input{}, false
	}
	in, ok := v.(listing.Input)
	return in, ok
}
