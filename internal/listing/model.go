package listing

import (
	"math"
	"time"

	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.NotFound("listing not found")
	ErrForbidden         = apperror.Forbidden("you do not own this listing")
	ErrOwnerRequired     = apperror.Unauthenticated("unauthorized")
	ErrInvalidPriceRange = apperror.Validation("invalid query parameters", map[string]string{
		"price_min": "must not be greater than price_max",
	})
)

// MaxPrice is the largest price the price column can hold.
const MaxPrice = math.MaxInt32

// Listing is a property offered by exactly one owner.
type Listing struct {
	ID           string
	OwnerID      string
	OwnerName    *string // owner's display name, read views only
	Title        string
	Description  string
	Price        int
	Location     string
	Country      string
	ImageFileID  *string
	HasThumbnail bool // read views only
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnedBy reports whether userID is the listing's owner.
func (l *Listing) OwnedBy(userID string) bool {
	return userID != "" && l.OwnerID == userID
}

// Input carries the writable fields of a listing.
// Text fields are sanitized before validation.
type Input struct {
	Title       string  `json:"title" validate:"required,max=120"`
	Description string  `json:"description" validate:"max=2000"`
	Price       *int    `json:"price" validate:"required,min=0,max=2147483647"`
	Location    string  `json:"location" validate:"required,max=120"`
	Country     string  `json:"country" validate:"max=80"`
	ImageFileID *string `json:"-"`
}

// Filter defines parameters for listing listings.
type Filter struct {
	Keyword   string // Search in Title, Location or Country
	Country   string
	OwnerID   string
	PriceMin  *int
	PriceMax  *int
	SortBy    string // created_at | price | title
	SortOrder string // ASC | DESC
	Page      int
	PageSize  int
}
