package listing

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
)

// ImageStore removes stored images that a listing no longer references.
type ImageStore interface {
	Delete(ctx context.Context, id string) error
}

type Service interface {
	// Create stores a new listing owned by ownerID.
	Create(ctx context.Context, ownerID string, in Input) (*Listing, error)
	GetByID(ctx context.Context, id string) (*Listing, error)
	List(ctx context.Context, filter Filter) ([]*Listing, int, error)
	// Update replaces the text fields of a listing. The image is replaced only
	// when in.ImageFileID is set.
	Update(ctx context.Context, id string, in Input) (*Listing, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo      Repository
	images    ImageStore
	validator *Validator
	logger    *zap.Logger
}

func NewService(repo Repository, images ImageStore, validator *Validator, logger *zap.Logger) Service {
	if validator == nil {
		validator = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:      repo,
		images:    images,
		validator: validator,
		logger:    logger.Named("listing"),
	}
}

func (s *service) Create(ctx context.Context, ownerID string, in Input) (*Listing, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}

	l := &Listing{
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Price:       *in.Price,
		Location:    in.Location,
		Country:     in.Country,
		ImageFileID: in.ImageFileID,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	// Re-read to pick up the owner name and thumbnail flag.
	return s.repo.GetByID(ctx, l.ID)
}

func (s *service) GetByID(ctx context.Context, id string) (*Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Listing, int, error) {
	if filter.PriceMin != nil && filter.PriceMax != nil && *filter.PriceMin > *filter.PriceMax {
		return nil, 0, ErrInvalidPriceRange
	}
	if filter.SortBy != "" {
		if _, ok := sortColumns[filter.SortBy]; !ok {
			return nil, 0, apperror.Validation("invalid query parameters", map[string]string{
				"sort_by": "must be one of: created_at price title",
			})
		}
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, in Input) (*Listing, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}

	previousImage := current.ImageFileID
	current.Title = in.Title
	current.Description = in.Description
	current.Price = *in.Price
	current.Location = in.Location
	current.Country = in.Country
	if in.ImageFileID != nil {
		current.ImageFileID = in.ImageFileID
	}

	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}

	if in.ImageFileID != nil && previousImage != nil && *previousImage != *in.ImageFileID {
		s.removeImage(ctx, *previousImage)
	}

	return s.repo.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id string) error {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if current.ImageFileID != nil {
		s.removeImage(ctx, *current.ImageFileID)
	}
	return nil
}

// removeImage is best effort; the listing change has already been committed.
func (s *service) removeImage(ctx context.Context, fileID string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, fileID); err != nil {
		s.logger.Warn("failed to remove listing image", zap.String("file_id", fileID), zap.Error(err))
	}
}
