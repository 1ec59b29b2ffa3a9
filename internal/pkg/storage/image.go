package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

const jpegQuality = 80

// ImageProcessor handles image processing like resizing.
type ImageProcessor struct{}

// NewImageProcessor creates a new ImageProcessor.
func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{}
}

// Normalize decodes an image, applies its EXIF orientation, fits it inside
// maxWidth x maxHeight and re-encodes it as JPEG. Images that already fit are
// not upscaled.
func (p *ImageProcessor) Normalize(content io.Reader, maxWidth, maxHeight int) (*bytes.Reader, error) {
	return p.fitJPEG(content, maxWidth, maxHeight)
}

// GenerateThumbnail creates a thumbnail from the source image.
// maxWidth and maxHeight define the bounding box for the thumbnail.
// It returns the thumbnail content as a JPEG.
func (p *ImageProcessor) GenerateThumbnail(content io.Reader, maxWidth, maxHeight int) (*bytes.Reader, error) {
	return p.fitJPEG(content, maxWidth, maxHeight)
}

func (p *ImageProcessor) fitJPEG(content io.Reader, maxWidth, maxHeight int) (*bytes.Reader, error) {
	img, err := imaging.Decode(content, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Fit keeps the aspect ratio and returns a copy of img if it already fits.
	fitted := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, fitted, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return bytes.NewReader(buf.Bytes()), nil
}
