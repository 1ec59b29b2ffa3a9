package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/listing-backend/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code.
// If it's not an AppError, it defaults to 500 Internal Server Error.
func Error(c *gin.Context, err error) {
	c.JSON(Status(err), Body(err))
}

// Status returns the HTTP status an error is rendered with.
func Status(err error) int {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// Body returns the client-facing JSON body for err. Causes are never exposed.
func Body(err error) ErrorResponse {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return ErrorResponse{Error: appErr.Message, Details: appErr.Details}
	}
	return ErrorResponse{Error: "internal server error"}
}
