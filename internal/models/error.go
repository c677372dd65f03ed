package models

import (
	"errors"
	"fmt"
)

// ==============================================
// CUSTOM ERROR TYPES
// ==============================================

// AppError represents a structured application error
type AppError struct {
	Code    string // Error code for client
	Message string // Human-readable message
	Err     error  // Underlying error (for logging)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ==============================================
// PREDEFINED ERRORS
// ==============================================

// User/Auth Errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrAccountBanned         = errors.New("account is banned")
	ErrAccountRestricted     = errors.New("account is restricted")
	ErrAccountInactive       = errors.New("account is inactive")
	ErrEmailAlreadyExists    = errors.New("email already registered")
	ErrUsernameAlreadyExists = errors.New("username already taken")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrWeakPassword          = errors.New("password too weak")
	ErrUserNotVerified       = errors.New("email not verified")
	ErrInvalidPendingToken   = errors.New("invalid or expired login challenge")
	ErrOAuthDisabled         = errors.New("google oauth is not configured")
	ErrOAuthStateMismatch    = errors.New("oauth state mismatch")
)

// Project Errors
var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrMilestoneNotFound = errors.New("milestone not found")
	ErrAlreadyAssigned   = errors.New("user is already assigned to this project")
	ErrAssignmentMissing = errors.New("user is not assigned to this project")
	ErrNotProjectMember  = errors.New("not a member of this project")
)

// Content Errors
var (
	ErrFeaturedWorkNotFound = errors.New("featured work not found")
	ErrClientNotFound       = errors.New("client not found")
)

// Session Errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ==============================================
// ERROR CODES (for API responses)
// ==============================================
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccountBanned      = "ACCOUNT_BANNED"
	ErrCodeAccountRestricted  = "ACCOUNT_RESTRICTED"
	ErrCodeAccountInactive    = "ACCOUNT_INACTIVE"
	ErrCodeUserExists         = "USER_EXISTS"
	ErrCodeNotVerified        = "NOT_VERIFIED"

	ErrCodeOTPExpired      = "OTP_EXPIRED"
	ErrCodeOTPInvalid      = "OTP_INVALID"
	ErrCodeOTPMaxAttempts  = "OTP_MAX_ATTEMPTS"
	ErrCodeDeliveryFailed  = "DELIVERY_FAILED"

	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
)

// ==============================================
// HELPER FUNCTIONS
// ==============================================

// IsNotFoundError checks if error is a "not found" error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrMilestoneNotFound) ||
		errors.Is(err, ErrFeaturedWorkNotFound) ||
		errors.Is(err, ErrClientNotFound)
}

// IsAuthError checks if error is authentication-related
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrAccountBanned) ||
		errors.Is(err, ErrAccountRestricted) ||
		errors.Is(err, ErrAccountInactive) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrInvalidPendingToken)
}
