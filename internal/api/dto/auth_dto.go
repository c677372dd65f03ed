package dto

import "github.com/arstudios/protend/internal/models"

// ==============================================
// AUTH REQUEST DTOs
// ==============================================

// LoginRequest - Email + password step
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

// VerifyOTPRequest - Code step for login and signup challenges
type VerifyOTPRequest struct {
	PendingToken string `json:"pending_token" binding:"required"`
	Code         string `json:"code" binding:"required,len=6"`
}

// ResendOTPRequest
type ResendOTPRequest struct {
	PendingToken string `json:"pending_token" binding:"required"`
}

// SignupRequest
type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// UpdatePreferencesRequest
type UpdatePreferencesRequest struct {
	Theme         string `json:"theme" binding:"required,oneof=dark light"`
	Notifications bool   `json:"notifications"`
}

// UpdateAvatarRequest
type UpdateAvatarRequest struct {
	AvatarURL string `json:"avatar_url" binding:"required,url"`
}

// ==============================================
// AUTH RESPONSE DTOs
// ==============================================

// PendingResponse - Password step accepted, OTP required
type PendingResponse struct {
	RequiresOTP  bool   `json:"requires_otp"`
	PendingToken string `json:"pending_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds the code is advertised valid
}

// SessionResponse - Login complete
type SessionResponse struct {
	Token     string             `json:"token"`
	ExpiresIn int                `json:"expires_in"`
	User      *models.PublicUser `json:"user"`
}
