package http

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/listing-backend/internal/file"
	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/listing-backend/internal/pkg/response"
)

const field = "listing[image]"

type fakeFileService struct {
	mu        sync.Mutex
	files     map[string]*file.File
	content   map[string][]byte
	uploadErr error
	next      int
}

func newFakeFileService() *fakeFileService {
	return &fakeFileService{files: map[string]*file.File{}, content: map[string][]byte{}}
}

func (s *fakeFileService) Upload(_ context.Context, in file.UploadInput) (*file.File, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	src, err := in.FileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	f := &file.File{
		ID:          "file-" + string(rune('0'+s.next)),
		UserID:      in.UserID,
		Filename:    in.FileHeader.Filename,
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
	}
	s.files[f.ID] = f
	s.content[f.ID] = data
	return f, nil
}

func (s *fakeFileService) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return file.ErrNotFound
	}
	delete(s.files, id)
	delete(s.content, id)
	return nil
}

func (s *fakeFileService) Get(_ context.Context, id string) (*file.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, file.ErrNotFound
	}
	return f, nil
}

func (s *fakeFileService) Download(ctx context.Context, id string) (io.ReadCloser, *file.File, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return io.NopCloser(bytes.NewReader(s.content[id])), f, nil
}

func (s *fakeFileService) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *file.File, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, nil, err
	}
	return nil, nil, file.ErrThumbnailNotFound
}

// sink renders the last recorded error, standing in for the engine's failure handler.
func sink(c *gin.Context) {
	c.Next()
	if len(c.Errors) > 0 && !c.Writer.Written() {
		response.Error(c, c.Errors.Last().Err)
	}
}

func newGateEngine(svc file.Service, maxBytes int64, action response.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, nil)
	r := gin.New()
	r.Use(sink)
	r.POST("/upload", h.SingleUpload(UploadConfig{
		FormFieldName: field,
		MaxSizeBytes:  maxBytes,
		AllowedTypes:  file.ImageTypes,
		ResizeImage:   true,
	}), response.Wrap(action))
	RegisterRoutes(r, h)
	return r
}

type part struct {
	field, filename, content string
}

func multipartRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.filename == "" {
			require.NoError(t, mw.WriteField(p.field, p.content))
			continue
		}
		w, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = w.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSingleUploadStoresFileForLaterHandlers(t *testing.T) {
	svc := newFakeFileService()
	var seen *file.File
	r := newGateEngine(svc, 1<<20, func(c *gin.Context) error {
		seen, _ = Uploaded(c)
		c.Status(http.StatusNoContent)
		return nil
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t,
		part{field: "listing[title]", content: "Flat"},
		part{field: field, filename: "a.png", content: "img"},
	))

	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, seen)
	assert.Contains(t, svc.files, seen.ID)
}

func TestSingleUploadWithoutFilePassesThrough(t *testing.T) {
	svc := newFakeFileService()
	called := false
	r := newGateEngine(svc, 1<<20, func(c *gin.Context) error {
		called = true
		_, ok := Uploaded(c)
		assert.False(t, ok)
		assert.Equal(t, "Flat", c.PostForm("listing[title]"))
		c.Status(http.StatusNoContent)
		return nil
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, part{field: "listing[title]", content: "Flat"}))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, called)
}

func TestSingleUploadIgnoresJSONBodies(t *testing.T) {
	svc := newFakeFileService()
	r := newGateEngine(svc, 1<<20, func(c *gin.Context) error {
		c.Status(http.StatusNoContent)
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"listing":{}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, svc.files)
}

func TestSingleUploadRollsBackWhenLaterStepFails(t *testing.T) {
	svc := newFakeFileService()
	r := newGateEngine(svc, 1<<20, func(c *gin.Context) error {
		return apperror.Validation("invalid listing", map[string]string{"title": "is required"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, part{field: field, filename: "a.png", content: "img"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.files)
}

func TestSingleUploadRejects(t *testing.T) {
	tests := []struct {
		name   string
		parts  []part
		max    int64
		status int
	}{
		{
			name:   "two files under the image field",
			parts:  []part{{field: field, filename: "a.png", content: "a"}, {field: field, filename: "b.png", content: "b"}},
			max:    1 << 20,
			status: http.StatusBadRequest,
		},
		{
			name:   "file under another field",
			parts:  []part{{field: "avatar", filename: "a.png", content: "a"}},
			max:    1 << 20,
			status: http.StatusBadRequest,
		},
		{
			name:   "body over the limit",
			parts:  []part{{field: field, filename: "a.png", content: strings.Repeat("x", 2<<20)}},
			max:    16,
			status: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeFileService()
			called := false
			r := newGateEngine(svc, tt.max, func(c *gin.Context) error {
				called = true
				return nil
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, multipartRequest(t, tt.parts...))

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, called)
			assert.Empty(t, svc.files)
		})
	}
}

func TestSingleUploadMalformedBody(t *testing.T) {
	r := newGateEngine(newFakeFileService(), 1<<20, func(c *gin.Context) error { return nil })

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("--nope\r\ngarbage"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=other")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSingleUploadForwardsServiceErrors(t *testing.T) {
	svc := newFakeFileService()
	svc.uploadErr = file.ErrUnsupportedType
	r := newGateEngine(svc, 1<<20, func(c *gin.Context) error { return nil })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, part{field: field, filename: "a.txt", content: "text"}))

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestServeFile(t *testing.T) {
	svc := newFakeFileService()
	f, err := svc.Upload(context.Background(), file.UploadInput{FileHeader: headerFor(t, "a.jpg", "jpeg-bytes")})
	require.NoError(t, err)
	r := newGateEngine(svc, 0, func(c *gin.Context) error { return nil })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, file.FileURL(f.ID), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg-bytes", w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, file.ThumbnailURL(f.ID), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServeFileQuotesFilename(t *testing.T) {
	svc := newFakeFileService()
	svc.files["file-q"] = &file.File{ID: "file-q", Filename: `say "hi"; x=1.jpg`, ContentType: "image/jpeg"}
	svc.content["file-q"] = []byte("jpeg-bytes")
	r := newGateEngine(svc, 0, func(c *gin.Context) error { return nil })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, file.FileURL("file-q"), nil))
	require.Equal(t, http.StatusOK, w.Code)

	disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "inline", disposition)
	assert.Equal(t, `say "hi"; x=1.jpg`, params["filename"])
}

func headerFor(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()
	req := multipartRequest(t, part{field: field, filename: filename, content: content})
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File[field][0]
}
