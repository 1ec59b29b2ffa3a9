package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/nekogravitycat/listing-backend/internal/file"
	"github.com/nekogravitycat/listing-backend/internal/listing"
	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/listing-backend/internal/pkg/request"
)

// ImageField is the only multipart field allowed to carry a file.
const ImageField = "listing[image]"

type OwnerResponse struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name"`
}

type ImageResponse struct {
	FileID       string  `json:"file_id"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

type ListingResponse struct {
	ID          string         `json:"id"`
	Owner       OwnerResponse  `json:"owner"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       int            `json:"price"`
	Location    string         `json:"location"`
	Country     string         `json:"country"`
	ImageFileID *string        `json:"image_file_id"`
	Image       *ImageResponse `json:"image"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func NewListingResponse(l *listing.Listing) ListingResponse {
	return ListingResponse{
		ID: l.ID,
		Owner: OwnerResponse{
			ID:          l.OwnerID,
			DisplayName: l.OwnerName,
		},
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Location:    l.Location,
		Country:     l.Country,
		ImageFileID: l.ImageFileID,
		Image:       newImageResponse(l),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func newImageResponse(l *listing.Listing) *ImageResponse {
	if l.ImageFileID == nil {
		return nil
	}
	img := &ImageResponse{
		FileID: *l.ImageFileID,
		URL:    file.FileURL(*l.ImageFileID),
	}
	if l.HasThumbnail {
		t := file.ThumbnailURL(*l.ImageFileID)
		img.ThumbnailURL = &t
	}
	return img
}

// ListingFields are the writable fields, accepted either as JSON nested under
// "listing" or as form fields named listing[title], listing[price], ...
// Form prices arrive as text; an empty value means the price is missing.
type ListingFields struct {
	Title       string `json:"title" form:"listing[title]"`
	Description string `json:"description" form:"listing[description]"`
	Price       *int   `json:"price" form:"-"`
	PriceText   string `json:"-" form:"listing[price]"`
	Location    string `json:"location" form:"listing[location]"`
	Country     string `json:"country" form:"listing[country]"`
}

type ListingRequest struct {
	Listing ListingFields `json:"listing"`
}

func (r ListingRequest) toInput() (listing.Input, error) {
	in := listing.Input{
		Title:       r.Listing.Title,
		Description: r.Listing.Description,
		Price:       r.Listing.Price,
		Location:    r.Listing.Location,
		Country:     r.Listing.Country,
	}
	if raw := strings.TrimSpace(r.Listing.PriceText); in.Price == nil && raw != "" {
		price, err := strconv.Atoi(raw)
		if err != nil {
			return in, apperror.Validation("invalid listing", map[string]string{
				"price": "must be a whole number",
			}).WithCause(err)
		}
		in.Price = &price
	}
	return in, nil
}

// ListListingsRequest defines the query parameters of the index action.
type ListListingsRequest struct {
	request.ListParams
	Keyword  string `form:"q" binding:"omitempty,max=100"`
	Country  string `form:"country" binding:"omitempty,max=80"`
	OwnerID  string `form:"owner_id" binding:"omitempty,uuid"`
	PriceMin *int   `form:"price_min" binding:"omitempty,min=0,max=2147483647"`
	PriceMax *int   `form:"price_max" binding:"omitempty,min=0,max=2147483647"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=created_at price title"`
}

func (r *ListListingsRequest) toFilter() listing.Filter {
	r.Normalize()
	return listing.Filter{
		Keyword:   r.Keyword,
		Country:   r.Country,
		OwnerID:   r.OwnerID,
		PriceMin:  r.PriceMin,
		PriceMax:  r.PriceMax,
		SortBy:    r.SortBy,
		SortOrder: r.SortOrder,
		Page:      r.Page,
		PageSize:  r.PageSize,
	}
}

// FieldDescriptor describes one input of the listing form.
type FieldDescriptor struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Required  bool     `json:"required"`
	MaxLength int      `json:"max_length,omitempty"`
	Min       *int     `json:"min,omitempty"`
	Max       *int     `json:"max,omitempty"`
	Accept    []string `json:"accept,omitempty"`
}

// FormDescriptor tells a client how to render and submit the listing form.
type FormDescriptor struct {
	Action      string            `json:"action"`
	Method      string            `json:"method"`
	Encoding    string            `json:"encoding"`
	UploadField string            `json:"upload_field"`
	MaxUpload   int64             `json:"max_upload_bytes"`
	Fields      []FieldDescriptor `json:"fields"`
	Values      *ListingFields    `json:"values,omitempty"`
	PreviewURL  *string           `json:"preview_url,omitempty"`
}

func newFormDescriptor(action, method string, maxUpload int64) FormDescriptor {
	zero, maxPrice := 0, listing.MaxPrice
	return FormDescriptor{
		Action:      action,
		Method:      method,
		Encoding:    "multipart/form-data",
		UploadField: ImageField,
		MaxUpload:   maxUpload,
		Fields: []FieldDescriptor{
			{Name: "listing[title]", Type: "text", Required: true, MaxLength: 120},
			{Name: "listing[description]", Type: "textarea", MaxLength: 2000},
			{Name: "listing[price]", Type: "number", Required: true, Min: &zero, Max: &maxPrice},
			{Name: "listing[location]", Type: "text", Required: true, MaxLength: 120},
			{Name: "listing[country]", Type: "text", MaxLength: 80},
			{Name: ImageField, Type: "file", Accept: file.ImageTypes},
		},
	}
}

func newEditFormDescriptor(l *listing.Listing, maxUpload int64) FormDescriptor {
	form := newFormDescriptor("/listings/"+l.ID, "PUT", maxUpload)
	price := l.Price
	form.Values = &ListingFields{
		Title:       l.Title,
		Description: l.Description,
		Price:       &price,
		Location:    l.Location,
		Country:     l.Country,
	}
	if img := newImageResponse(l); img != nil {
		preview := img.URL
		if img.ThumbnailURL != nil {
			preview = *img.ThumbnailURL
		}
		form.PreviewURL = &preview
	}
	return form
}
