package http

import (
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/listing-backend/internal/file"
)

type Handler struct {
	fileService file.Service
	logger      *zap.Logger
}

func NewHandler(fileService file.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		fileService: fileService,
		logger:      logger.Named("file.http"),
	}
}

// ServeFile serves the file content by ID
func (h *Handler) ServeFile(c *gin.Context) error {
	stream, fileInfo, err := h.fileService.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	defer stream.Close()

	h.stream(c, stream, fileInfo.ContentType, fileInfo.Filename)
	return nil
}

// ServeThumbnail serves the thumbnail image by file ID
func (h *Handler) ServeThumbnail(c *gin.Context) error {
	stream, fileInfo, err := h.fileService.DownloadThumbnail(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	defer stream.Close()

	// Thumbnails are always JPEG
	h.stream(c, stream, "image/jpeg", fileInfo.Filename+"_thumb.jpg")
	return nil
}

func (h *Handler) stream(c *gin.Context, content io.Reader, contentType, filename string) {
	c.Header("Content-Type", contentType)
	disposition := mime.FormatMediaType("inline", map[string]string{"filename": filename})
	if disposition == "" {
		disposition = "inline"
	}
	c.Header("Content-Disposition", disposition)
	c.Header("Cache-Control", "public, max-age=86400")

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, content); err != nil {
		// Response already started.
		h.logger.Warn("file stream interrupted", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
}
