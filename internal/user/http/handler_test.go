package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/listing-backend/internal/auth"
	"github.com/nekogravitycat/listing-backend/internal/pkg/ratelimit"
	"github.com/nekogravitycat/listing-backend/internal/pkg/request"
	"github.com/nekogravitycat/listing-backend/internal/pkg/response"
	"github.com/nekogravitycat/listing-backend/internal/user"
)

type fakeUsers struct {
	mu        sync.Mutex
	byEmail   map[string]*user.User
	passwords map[string]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*user.User{}, passwords: map[string]string{}}
}

func (f *fakeUsers) Register(_ context.Context, email, password, displayName string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(email)
	if _, ok := f.byEmail[email]; ok {
		return nil, user.ErrEmailAlreadyUsed
	}
	u := &user.User{ID: uuid.NewString(), Email: email, DisplayName: &displayName, CreatedAt: time.Now(), IsActive: true}
	f.byEmail[email] = u
	f.passwords[email] = password
	return u, nil
}

func (f *fakeUsers) Login(_ context.Context, email, password string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(email)
	u, ok := f.byEmail[email]
	if !ok || f.passwords[email] != password {
		return nil, user.ErrInvalidCredentials
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

type memorySessions struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (m *memorySessions) Revoke(_ context.Context, id string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[id] = true
	return nil
}

func (m *memorySessions) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[id], nil
}

func newUserRouter(limiter *ratelimit.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	request.UseJSONFieldNames()

	jwt := auth.NewJWTManager("test-secret", time.Hour)
	sessions := &memorySessions{revoked: map[string]bool{}}
	h := NewHandler(newFakeUsers(), jwt, sessions)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 && !c.Writer.Written() {
			response.Error(c, c.Errors.Last().Err)
		}
	})
	RegisterRoutes(r, h, auth.AuthRequired(jwt, sessions), limiter.Middleware())
	return r
}

func postJSON(r *gin.Engine, path, token string, payload any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getMe(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterLoginMeLogout(t *testing.T) {
	r := newUserRouter(ratelimit.New(100, 100))

	w := postJSON(r, "/auth/register", "", map[string]string{
		"email": "Ann@Example.com", "password": "correct-horse", "display_name": "Ann",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = postJSON(r, "/auth/register", "", map[string]string{
		"email": "ann@example.com", "password": "correct-horse", "display_name": "Ann",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = postJSON(r, "/auth/login", "", map[string]string{"email": "ann@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/auth/login", "", map[string]string{"email": "ann@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)
	var login LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, "Bearer", login.TokenType)
	assert.Equal(t, "ann@example.com", login.User.Email)

	w = getMe(r, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var me MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, login.User.ID, me.User.ID)

	w = postJSON(r, "/auth/logout", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The token is still unexpired but its session has ended.
	w = getMe(r, login.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	r := newUserRouter(ratelimit.New(100, 100))

	w := postJSON(r, "/auth/register", "", map[string]string{"email": "not-an-email", "password": "short"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Details, "email")
	assert.Contains(t, body.Details, "password")
	assert.Contains(t, body.Details, "display_name")
}

func TestLoginIsRateLimited(t *testing.T) {
	r := newUserRouter(ratelimit.New(0.001, 2))
	creds := map[string]string{"email": "ann@example.com", "password": "whatever1"}

	assert.Equal(t, http.StatusUnauthorized, postJSON(r, "/auth/login", "", creds).Code)
	assert.Equal(t, http.StatusUnauthorized, postJSON(r, "/auth/login", "", creds).Code)
	assert.Equal(t, http.StatusTooManyRequests, postJSON(r, "/auth/login", "", creds).Code)
}
