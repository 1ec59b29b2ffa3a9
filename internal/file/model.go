package file

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.NotFound("file not found")
	ErrThumbnailNotFound = apperror.NotFound("thumbnail not available for this file")
	ErrFileTooLarge      = apperror.New(http.StatusRequestEntityTooLarge, "file is too large")
	ErrUnsupportedType   = apperror.New(http.StatusUnsupportedMediaType, "unsupported file type")
)

// File represents a file object in the system
type File struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Filename      string    `json:"filename"`
	StoragePath   string    `json:"-"` // Internal path
	ThumbnailPath *string   `json:"-"` // Internal path
	ContentType   string    `json:"content_type"`
	Size          int64     `json:"size"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasThumbnail reports whether a thumbnail was generated for the file.
func (f *File) HasThumbnail() bool {
	return f.ThumbnailPath != nil
}

// FileURL returns the public URL for accessing a file by its ID.
func FileURL(id string) string {
	return "/files/" + id
}

// ThumbnailURL returns the public URL for accessing a file's thumbnail by its ID.
func ThumbnailURL(id string) string {
	return "/files/" + id + "/thumbnail"
}
