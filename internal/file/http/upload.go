package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/nekogravitycat/listing-backend/internal/auth"
	"github.com/nekogravitycat/listing-backend/internal/file"
	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/listing-backend/internal/pkg/response"
)

const (
	ctxUploadedFile = "uploadedFile"

	// Room for the non-file form fields sharing the body with the upload.
	formOverheadBytes = 1 << 20
	maxMemoryBytes    = 8 << 20
)

var (
	ErrMalformedMultipart = apperror.New(http.StatusBadRequest, "malformed multipart body")
	ErrTooManyFiles       = apperror.New(http.StatusBadRequest, "at most one file may be uploaded")
	ErrUnexpectedFile     = apperror.New(http.StatusBadRequest, "unexpected file field")
	ErrBodyTooLarge       = apperror.New(http.StatusRequestEntityTooLarge, "request body is too large")
)

// UploadConfig defines a single-file upload gate.
type UploadConfig struct {
	FormFieldName string   // the only field allowed to carry a file
	MaxSizeBytes  int64    // maximum file size in bytes (0 = no limit)
	AllowedTypes  []string // allowed MIME types (empty = allow all)
	ResizeImage   bool     // normalize to a bounded .jpg
}

// SingleUpload returns a gate that persists at most one file from a multipart
// body and exposes it through Uploaded. Other content types pass through
// untouched. When a later handler in the chain records an error, the stored
// file is removed again.
func (h *Handler) SingleUpload(cfg UploadConfig) gin.HandlerFunc {
	return response.Wrap(func(c *gin.Context) error {
		if c.ContentType() != binding.MIMEMultipartPOSTForm {
			return nil
		}

		if cfg.MaxSizeBytes > 0 {
			limit := cfg.MaxSizeBytes + formOverheadBytes
			if c.Request.ContentLength > limit {
				return ErrBodyTooLarge
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		if err := c.Request.ParseMultipartForm(maxMemoryBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return ErrBodyTooLarge
			}
			return ErrMalformedMultipart.WithCause(err)
		}

		form := c.Request.MultipartForm
		for field, headers := range form.File {
			if field != cfg.FormFieldName {
				return ErrUnexpectedFile.WithCause(errors.New(field))
			}
			if len(headers) > 1 {
				return ErrTooManyFiles
			}
		}

		headers := form.File[cfg.FormFieldName]
		if len(headers) == 0 {
			return nil
		}

		f, err := h.fileService.Upload(c.Request.Context(), file.UploadInput{
			FileHeader:   headers[0],
			UserID:       auth.GetUserID(c),
			MaxSizeBytes: cfg.MaxSizeBytes,
			AllowedTypes: cfg.AllowedTypes,
			ResizeImage:  cfg.ResizeImage,
		})
		if err != nil {
			return err
		}
		c.Set(ctxUploadedFile, f)

		c.Next()

		if len(c.Errors) > 0 {
			h.rollback(c, f)
		}
		return nil
	})
}

func (h *Handler) rollback(c *gin.Context, f *file.File) {
	// The request context may already be cancelled.
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.fileService.Delete(ctx, f.ID); err != nil {
		h.logger.Error("failed to roll back upload", zap.String("file_id", f.ID), zap.Error(err))
		return
	}
	h.logger.Debug("rolled back upload", zap.String("file_id", f.ID))
}

// Uploaded returns the file stored by SingleUpload for this request, if any.
func Uploaded(c *gin.Context) (*file.File, bool) {
	v, ok := c.Get(ctxUploadedFile)
	if !ok {
		return nil, false
	}
	f, ok := v.(*file.File)
	return f, ok
}
