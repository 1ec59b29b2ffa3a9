package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "upload/ab/file.jpg", strings.NewReader("hello"), "image/jpeg"))

	rc, err := store.Get(ctx, "upload/ab/file.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Delete(ctx, "upload/ab/file.jpg"))
	_, err = store.Get(ctx, "upload/ab/file.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, "upload/ab/file.jpg"))
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = store.Save(context.Background(), "../outside.txt", strings.NewReader("x"), "")
	assert.Error(t, err)
}

type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.StringValue(in.Key)] = data
	f.types[aws.StringValue(in.Key)] = aws.StringValue(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.NewRequestFailure(awserr.New(s3.ErrCodeNoSuchKey, "missing", nil), http.StatusNotFound, "req-1")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := NewS3StorageWithClient(client, "listings")

	// A plain io.Reader is buffered before upload.
	require.NoError(t, store.Save(ctx, "upload/cd/img.jpg", io.LimitReader(strings.NewReader("pixels"), 100), "image/jpeg"))
	assert.Equal(t, "image/jpeg", client.types["upload/cd/img.jpg"])

	rc, err := store.Get(ctx, "upload/cd/img.jpg")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "pixels", string(data))

	require.NoError(t, store.Delete(ctx, "upload/cd/img.jpg"))
	_, err = store.Get(ctx, "upload/cd/img.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestNewS3StorageRequiresBucket(t *testing.T) {
	_, err := NewS3Storage(S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageProcessorFitsInsideBox(t *testing.T) {
	p := NewImageProcessor()

	out, err := p.GenerateThumbnail(bytes.NewReader(testPNG(t, 400, 200)), 100, 100)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestImageProcessorDoesNotUpscale(t *testing.T) {
	p := NewImageProcessor()

	out, err := p.Normalize(bytes.NewReader(testPNG(t, 40, 30)), 1600, 1600)
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)
}

func TestImageProcessorRejectsNonImages(t *testing.T) {
	_, err := NewImageProcessor().Normalize(strings.NewReader("not an image"), 10, 10)
	assert.Error(t, err)
}
