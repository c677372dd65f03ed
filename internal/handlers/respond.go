package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arstudios/protend/internal/models"
	"github.com/arstudios/protend/internal/otp"
	"github.com/arstudios/protend/internal/repository"
	"github.com/arstudios/protend/internal/service"
)

// ==============================================
// RESPONSE HELPERS
// ==============================================

// respondSuccess sends a successful JSON response
func respondSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// respondError sends an error JSON response
func respondError(c *gin.Context, statusCode int, message string, err error) {
	c.JSON(statusCode, gin.H{
		"error":   message,
		"message": err.Error(),
	})
}

// respondServiceError maps service errors to appropriate HTTP status codes and responses
func respondServiceError(c *gin.Context, err error) {
	statusCode, message := mapServiceError(err)
	c.JSON(statusCode, gin.H{
		"error":   message,
		"message": err.Error(),
	})
}

// mapServiceError maps service errors to HTTP status codes and user-friendly messages
func mapServiceError(err error) (int, string) {
	switch {
	// Credential and challenge errors (401 Unauthorized)
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, models.ErrInvalidPendingToken):
		return http.StatusUnauthorized, "Login challenge expired, start over"
	case errors.Is(err, models.ErrInvalidToken), errors.Is(err, models.ErrTokenExpired):
		return http.StatusUnauthorized, "Session expired"

	// One-time code errors
	case errors.Is(err, otp.ErrNotFoundOrExpired):
		return http.StatusUnauthorized, "Code expired or not found, request a new one"
	case errors.Is(err, otp.ErrInvalidCode):
		return http.StatusUnauthorized, "Incorrect code"
	case errors.Is(err, otp.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "Too many attempts, request a new code"
	case errors.Is(err, otp.ErrDeliveryFailed), errors.Is(err, service.ErrMailerDisabled):
		return http.StatusServiceUnavailable, "Could not send the verification email"
	case errors.Is(err, otp.ErrConsumeContention):
		return http.StatusServiceUnavailable, "Verification is busy, try again"

	// Account state errors (403 Forbidden)
	case errors.Is(err, models.ErrAccountBanned):
		return http.StatusForbidden, "Account is banned"
	case errors.Is(err, models.ErrAccountRestricted):
		return http.StatusForbidden, "Account is restricted"
	case errors.Is(err, models.ErrAccountInactive):
		return http.StatusForbidden, "Account is deactivated"
	case errors.Is(err, models.ErrNotProjectMember):
		return http.StatusForbidden, "Not a member of this project"
	case errors.Is(err, service.ErrCannotModerateAdmin):
		return http.StatusForbidden, "Admin accounts cannot be moderated"

	// Conflicts (409)
	case errors.Is(err, models.ErrEmailAlreadyExists):
		return http.StatusConflict, "Email already registered"
	case errors.Is(err, models.ErrUsernameAlreadyExists):
		return http.StatusConflict, "Username already taken"
	case errors.Is(err, models.ErrAlreadyAssigned):
		return http.StatusConflict, "User already assigned"

	// Validation errors (400 Bad Request)
	case errors.Is(err, models.ErrInvalidEmail):
		return http.StatusBadRequest, "Invalid email address"
	case errors.Is(err, models.ErrWeakPassword):
		return http.StatusBadRequest, "Password must be at least 8 characters"
	case errors.Is(err, service.ErrEmptyMessage):
		return http.StatusBadRequest, "Message body is required"
	case errors.Is(err, service.ErrInvalidTheme):
		return http.StatusBadRequest, "Unknown theme"
	case errors.Is(err, models.ErrAssignmentMissing):
		return http.StatusBadRequest, "User is not assigned to this project"
	case errors.Is(err, models.ErrOAuthDisabled):
		return http.StatusNotImplemented, "Google sign-in is not configured"
	case errors.Is(err, models.ErrOAuthStateMismatch):
		return http.StatusBadRequest, "OAuth state mismatch"

	// Not found errors (404 Not Found)
	case errors.Is(err, repository.ErrChatMessageNotFound):
		return http.StatusNotFound, "Message not found"
	case models.IsNotFoundError(err):
		return http.StatusNotFound, "Resource not found"

	// Default (500 Internal Server Error)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
