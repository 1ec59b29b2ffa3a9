package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/listing-backend/internal/pkg/storage"
)

const (
	// Uploaded images are normalized to fit this box.
	maxImageDimension = 1600
	thumbnailSize     = 250
)

// ImageTypes lists the MIME types accepted for listing images.
var ImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp", "image/tiff"}

// UploadInput describes one file to be persisted.
type UploadInput struct {
	FileHeader   *multipart.FileHeader
	UserID       string
	MaxSizeBytes int64    // 0 = no limit
	AllowedTypes []string // empty = allow all
	ResizeImage  bool     // decode, normalize and store as .jpg
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*File, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*File, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *File, error)
	DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error)
}

type service struct {
	repo    Repository
	storage storage.Storage
	imgProc *storage.ImageProcessor
	logger  *zap.Logger
}

func NewService(repo Repository, store storage.Storage, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:    repo,
		storage: store,
		imgProc: storage.NewImageProcessor(),
		logger:  logger.Named("file"),
	}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*File, error) {
	header := input.FileHeader
	if header == nil {
		return nil, apperror.Validation("file is required", nil)
	}
	if input.MaxSizeBytes > 0 && header.Size > input.MaxSizeBytes {
		return nil, ErrFileTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	var reader io.Reader = src
	if input.MaxSizeBytes > 0 {
		reader = io.LimitReader(src, input.MaxSizeBytes+1)
	}
	fileBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	if input.MaxSizeBytes > 0 && int64(len(fileBytes)) > input.MaxSizeBytes {
		return nil, ErrFileTooLarge
	}

	// Trust the bytes, not the client-declared Content-Type.
	detected := mimetype.Detect(fileBytes)
	if len(input.AllowedTypes) > 0 && !mimetype.EqualsAny(detected.String(), input.AllowedTypes...) {
		return nil, ErrUnsupportedType
	}

	contentType := detected.String()
	ext := detected.Extension()
	content := fileBytes
	if input.ResizeImage {
		normalized, err := s.imgProc.Normalize(bytes.NewReader(fileBytes), maxImageDimension, maxImageDimension)
		if err != nil {
			return nil, ErrUnsupportedType.WithCause(err)
		}
		content, err = io.ReadAll(normalized)
		if err != nil {
			return nil, fmt.Errorf("failed to read normalized image: %w", err)
		}
		contentType = "image/jpeg"
		ext = ".jpg"
	}

	fileID := uuid.New().String()

	// Sharding path: upload/ab/UUID.ext
	shard := fileID[:2]
	storagePath := fmt.Sprintf("upload/%s/%s%s", shard, fileID, ext)

	if err := s.storage.Save(ctx, storagePath, bytes.NewReader(content), contentType); err != nil {
		return nil, apperror.Upstream(err, "failed to store file")
	}

	var thumbnailPath *string
	if mimetype.EqualsAny(contentType, ImageTypes...) {
		thumbnailPath = s.saveThumbnail(ctx, content, shard, fileID)
	}

	f := &File{
		ID:            fileID,
		UserID:        input.UserID,
		Filename:      header.Filename,
		StoragePath:   storagePath,
		ThumbnailPath: thumbnailPath,
		ContentType:   contentType,
		Size:          int64(len(content)),
		CreatedAt:     time.Now(),
	}

	if err := s.repo.Create(ctx, f); err != nil {
		// Cleanup storage if db fails
		s.removeObjects(ctx, f)
		return nil, err
	}

	return f, nil
}

// saveThumbnail stores a thumbnail next to the original. Failure is logged and
// the upload proceeds without one.
func (s *service) saveThumbnail(ctx context.Context, content []byte, shard, fileID string) *string {
	thumb, err := s.imgProc.GenerateThumbnail(bytes.NewReader(content), thumbnailSize, thumbnailSize)
	if err != nil {
		s.logger.Warn("thumbnail generation failed", zap.String("file_id", fileID), zap.Error(err))
		return nil
	}

	path := fmt.Sprintf("upload/%s/%s_thumb.jpg", shard, fileID)
	if err := s.storage.Save(ctx, path, thumb, "image/jpeg"); err != nil {
		s.logger.Warn("thumbnail save failed", zap.String("file_id", fileID), zap.Error(err))
		return nil
	}
	return &path
}

func (s *service) removeObjects(ctx context.Context, f *File) {
	if err := s.storage.Delete(ctx, f.StoragePath); err != nil {
		s.logger.Warn("failed to delete stored object", zap.String("path", f.StoragePath), zap.Error(err))
	}
	if f.ThumbnailPath != nil {
		if err := s.storage.Delete(ctx, *f.ThumbnailPath); err != nil {
			s.logger.Warn("failed to delete stored object", zap.String("path", *f.ThumbnailPath), zap.Error(err))
		}
	}
}

func (s *service) Delete(ctx context.Context, id string) error {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// Best effort on storage; the record is what callers observe.
	s.removeObjects(ctx, f)

	return s.repo.Delete(ctx, id)
}

func (s *service) Get(ctx context.Context, id string) (*File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Download(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.open(ctx, f.StoragePath, ErrNotFound)
	if err != nil {
		return nil, nil, err
	}
	return stream, f, nil
}

func (s *service) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if f.ThumbnailPath == nil {
		return nil, nil, ErrThumbnailNotFound
	}

	stream, err := s.open(ctx, *f.ThumbnailPath, ErrThumbnailNotFound)
	if err != nil {
		return nil, nil, err
	}
	return stream, f, nil
}

func (s *service) open(ctx context.Context, path string, missing error) (io.ReadCloser, error) {
	stream, err := s.storage.Get(ctx, path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, missing
		}
		return nil, apperror.Upstream(err, "failed to retrieve file from storage")
	}
	return stream, nil
}
