package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/listing-backend/internal/auth"
	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/listing-backend/internal/pkg/request"
	"github.com/nekogravitycat/listing-backend/internal/user"
)

type UserHandler struct {
	userService user.Service
	jwtManager  *auth.JWTManager
	sessions    auth.SessionStore
}

// NewHandler wires the account endpoints. sessions may be nil, in which case
// logout only tells the client to drop its token.
func NewHandler(userService user.Service, jwtManager *auth.JWTManager, sessions auth.SessionStore) *UserHandler {
	return &UserHandler{
		userService: userService,
		jwtManager:  jwtManager,
		sessions:    sessions,
	}
}

// Register handles the user registration process.
// It validates the payload and creates a new user if the email is unique.
func (h *UserHandler) Register(c *gin.Context) error {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return request.BindingError("invalid request body", err)
	}

	u, err := h.userService.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		return err
	}

	c.JSON(http.StatusCreated, MeResponse{User: NewUserResponse(u)})
	return nil
}

// Login authenticates a user using email and password.
// On success, it returns a JWT access token and the user profile.
func (h *UserHandler) Login(c *gin.Context) error {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return request.BindingError("invalid request body", err)
	}

	u, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	token, err := h.jwtManager.GenerateAccessToken(u.ID)
	if err != nil {
		return fmt.Errorf("issue access token: %w", err)
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        NewUserResponse(u),
	})
	return nil
}

// Logout ends the session the request was authenticated with.
func (h *UserHandler) Logout(c *gin.Context) error {
	sessionID, expiresAt, ok := auth.GetSession(c)
	if !ok {
		return apperror.Unauthenticated("unauthorized")
	}

	if h.sessions != nil {
		if err := h.sessions.Revoke(c.Request.Context(), sessionID, expiresAt); err != nil {
			return apperror.Upstream(err, "failed to end session")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	return nil
}

// Me retrieves the profile of the currently authenticated user.
func (h *UserHandler) Me(c *gin.Context) error {
	u, err := h.userService.GetByID(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, MeResponse{User: NewUserResponse(u)})
	return nil
}
